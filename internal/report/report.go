package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"galapagos/internal/model"
)

const (
	runFile         = "run.json"
	generationsFile = "generations.csv"
)

var generationHeader = []string{
	"generation",
	"best_fitness",
	"worst_fitness",
	"fitness_mean",
	"fitness_variance",
	"age_mean",
	"age_variance",
	"samples",
	"killed",
	"invalid",
	"altered",
	"selection_ms",
	"alter_ms",
	"combine_ms",
	"evaluation_ms",
	"statistics_ms",
	"execution_ms",
}

// WriteRun writes run.json and generations.csv below dir/<run id> and
// returns that directory.
func WriteRun(dir string, run model.RunRecord, generations []model.GenerationRecord) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(dir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, runFile), run); err != nil {
		return "", err
	}
	if err := writeGenerations(filepath.Join(runDir, generationsFile), generations); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRun reads back what WriteRun wrote for runID.
func ReadRun(dir, runID string) (model.RunRecord, []model.GenerationRecord, error) {
	runDir := filepath.Join(dir, runID)

	data, err := os.ReadFile(filepath.Join(runDir, runFile))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, nil, fmt.Errorf("decode %s: %w", runFile, err)
	}

	generations, err := readGenerations(filepath.Join(runDir, generationsFile))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	return run, generations, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func writeGenerations(path string, generations []model.GenerationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(generationHeader); err != nil {
		return err
	}
	for _, g := range generations {
		d := g.Durations
		if err := writer.Write([]string{
			strconv.Itoa(g.Generation),
			formatFloat(g.BestFitness),
			formatFloat(g.WorstFitness),
			formatFloat(g.FitnessMean),
			formatFloat(g.FitnessVariance),
			formatFloat(g.AgeMean),
			formatFloat(g.AgeVariance),
			strconv.Itoa(g.Samples),
			strconv.Itoa(g.Killed),
			strconv.Itoa(g.Invalid),
			strconv.Itoa(g.Altered),
			formatFloat(d.Selection),
			formatFloat(d.Alter),
			formatFloat(d.Combine),
			formatFloat(d.Evaluation),
			formatFloat(d.Statistics),
			formatFloat(d.Execution),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func readGenerations(path string) ([]model.GenerationRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(generationHeader)
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header", generationsFile)
		}
		return nil, err
	}

	var generations []model.GenerationRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		g, err := parseGeneration(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", generationsFile, line, err)
		}
		generations = append(generations, g)
	}
	return generations, nil
}

func parseGeneration(record []string) (model.GenerationRecord, error) {
	p := parser{record: record}
	g := model.GenerationRecord{
		Generation:      p.atoi(0),
		BestFitness:     p.atof(1),
		WorstFitness:    p.atof(2),
		FitnessMean:     p.atof(3),
		FitnessVariance: p.atof(4),
		AgeMean:         p.atof(5),
		AgeVariance:     p.atof(6),
		Samples:         p.atoi(7),
		Killed:          p.atoi(8),
		Invalid:         p.atoi(9),
		Altered:         p.atoi(10),
		Durations: model.PhaseDurationMS{
			Selection:  p.atof(11),
			Alter:      p.atof(12),
			Combine:    p.atof(13),
			Evaluation: p.atof(14),
			Statistics: p.atof(15),
			Execution:  p.atof(16),
		},
	}
	return g, p.err
}

// parser keeps the first conversion error.
type parser struct {
	record []string
	err    error
}

func (p *parser) atoi(i int) int {
	v, err := strconv.Atoi(p.record[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", generationHeader[i], err)
	}
	return v
}

func (p *parser) atof(i int) float64 {
	v, err := strconv.ParseFloat(p.record[i], 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", generationHeader[i], err)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
