//go:generate mockgen -source=../weather_cache.go    -destination=./mock_weather_cache.go    -package=mocks
//go:generate mockgen -source=../weather_provider.go -destination=./mock_weather_provider.go -package=mocks
//go:generate mockgen -source=../weather_resolver.go -destination=./mock_weather_resolver.go -package=mocks
//go:generate mockgen -source=../weather_metrics.go  -destination=./mock_weather_metrics.go  -package=mocks
//go:generate mockgen -source=../logger.go           -destination=./mock_logger.go           -package=mocks
//go:generate mockgen -source=../message_consumer.go -destination=./mock_message_consumer.go -package=mocks

package mocks
