package validate

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatLines InputFormat = "lines" // один город на строку
	FormatJSON  InputFormat = "json"  // массив строк
	FormatJSONL InputFormat = "jsonl" // {"city": "..."} на строку, как подсказки из Kafka
)

// CitiesResult — статистика разбора списка городов.
type CitiesResult struct {
	Valid   int
	Invalid int
}

func (r CitiesResult) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.Valid, r.Invalid)
}

// ReadCitiesFile — список городов из файла; формат auto определяется по расширению.
func ReadCitiesFile(path string, format InputFormat) ([]string, CitiesResult, error) {
	if format == FormatAuto {
		format = formatByExt(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, CitiesResult{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ReadCities(file, format)
}

// ReadCities — читает список городов, пропуская невалидные и дубликаты (без учёта регистра).
// Пустые строки пропускаются. Невалидный JSON-массив целиком — ошибка.
func ReadCities(r io.Reader, format InputFormat) ([]string, CitiesResult, error) {
	var (
		res  CitiesResult
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(raw string) {
		city, err := City(raw)
		if err != nil {
			res.Invalid++
			return
		}
		key := strings.ToLower(city)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, city)
		res.Valid++
	}

	switch format {
	case FormatJSON:
		var raw []string
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, res, fmt.Errorf("decode json: %w", err)
		}
		for _, c := range raw {
			add(c)
		}
		return out, res, nil

	case FormatLines, FormatJSONL, FormatAuto:
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if format != FormatJSONL {
				add(line)
				continue
			}
			var msg struct {
				City string `json:"city"`
			}
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				res.Invalid++
				continue
			}
			add(msg.City)
		}
		if err := scanner.Err(); err != nil {
			return out, res, fmt.Errorf("scan: %w", err)
		}
		return out, res, nil

	default:
		return nil, res, errors.New("unsupported format: " + string(format))
	}
}

func formatByExt(path string) InputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return FormatJSONL
	case ".json":
		return FormatJSON
	default:
		return FormatLines
	}
}
