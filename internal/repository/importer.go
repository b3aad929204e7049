package repository

import (
	"bufio"
	"encoding/csv"
	"io"
	"log"
	"strings"
)

// FeedSource describes one remote list feed. Format is "hosts", "text" or
// "csv"; List says which side of the store the feed populates.
type FeedSource struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	Format       string `yaml:"format"`
	List         string `yaml:"list"`
	TargetColumn string `yaml:"target_column"`
	Risk         int    `yaml:"risk"`
}

func (s FeedSource) list() string {
	if s.List == ListWhitelist {
		return ListWhitelist
	}
	return ListBlacklist
}

// ParseAndStream reads a feed body and streams entries into outChan,
// closing it when the feed is exhausted.
func ParseAndStream(reader io.Reader, outChan chan<- ListEntry, src FeedSource) {
	defer close(outChan)

	switch src.Format {
	case "csv":
		parseCSV(reader, outChan, src)
	case "text":
		parseText(reader, outChan, src)
	case "hosts":
		fallthrough
	default:
		parseHosts(reader, outChan, src)
	}
}

// Hosts format: "0.0.0.0 domain.com" per line.
func parseHosts(reader io.Reader, outChan chan<- ListEntry, src FeedSource) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) >= 2 {
			outChan <- ListEntry{
				Domain: parts[1],
				List:   src.list(),
				Source: src.Name,
				Risk:   src.Risk,
			}
		}
	}
}

// Text format: one domain or URL per line. Feeds like OpenPhish publish
// full URLs; reduce those to their host.
func parseText(reader io.Reader, outChan chan<- ListEntry, src FeedSource) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		outChan <- ListEntry{
			Domain: hostFromLine(line),
			List:   src.list(),
			Source: src.Name,
			Risk:   src.Risk,
		}
	}
}

func hostFromLine(line string) string {
	if i := strings.Index(line, "://"); i >= 0 {
		line = line[i+3:]
	}
	if i := strings.IndexAny(line, "/?"); i >= 0 {
		line = line[:i]
	}
	return line
}

// CSV format: header-driven, reads the configured target column.
func parseCSV(reader io.Reader, outChan chan<- ListEntry, src FeedSource) {
	csvReader := csv.NewReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		log.Printf("Failed to read CSV header for %s: %v", src.Name, err)
		return
	}

	targetIndex := -1
	targetCol := strings.ToLower(src.TargetColumn)
	for i, col := range header {
		if strings.ToLower(col) == targetCol {
			targetIndex = i
			break
		}
	}
	if targetIndex == -1 {
		log.Printf("Column '%s' not found in CSV for %s", src.TargetColumn, src.Name)
		return
	}

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		if len(record) > targetIndex {
			domain := strings.TrimSpace(record[targetIndex])
			if domain != "" {
				outChan <- ListEntry{
					Domain: hostFromLine(domain),
					List:   src.list(),
					Source: src.Name,
					Risk:   src.Risk,
				}
			}
		}
	}
}
