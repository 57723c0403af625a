package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"galapagos/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// EncodeRun stamps the current versions on run before encoding it.
func EncodeRun(run model.RunRecord) ([]byte, error) {
	run.VersionedRecord = currentVersion()
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGenerations(runID string, generations []model.GenerationRecord) ([]byte, error) {
	return json.Marshal(model.GenerationLog{
		VersionedRecord: currentVersion(),
		RunID:           runID,
		Generations:     generations,
	})
}

func DecodeGenerations(data []byte) ([]model.GenerationRecord, error) {
	var log model.GenerationLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, err
	}
	if err := checkVersion(log.VersionedRecord); err != nil {
		return nil, err
	}
	return log.Generations, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
