package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadFloatPairs reads a whitespace separated two-column table, skipping
// blank lines and lines starting with '#'.
func ReadFloatPairs(filename string) ([][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var result [][]float64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Fields(line)

		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}

		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid format in line: %q - expected 2 numbers, got %d", line, len(parts))
		}

		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing float in line %q: %w", line, err)
		}

		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing float in line %q: %w", line, err)
		}

		result = append(result, []float64{x, y})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return result, nil
}

func GetFilename(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OpenFile creates <outputPath>/<fileSuffix>/<runName>.txt when makeDir is
// set, <outputPath>/<runName>_<fileSuffix>.txt otherwise.
func OpenFile(makeDir bool, outputPath string, fileSuffix, runName string) (*os.File, error) {
	if makeDir && fileSuffix != "" && fileSuffix != "." {
		dir := filepath.Join(outputPath, fileSuffix)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
		return os.Create(filepath.Join(dir, runName+".txt"))
	}
	return os.Create(filepath.Join(outputPath, runName+"_"+fileSuffix+".txt"))
}
