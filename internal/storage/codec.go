package storage

import (
	"encoding/json"
	"errors"

	"github.com/Abm32/proteinforge/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeDesignRun(run model.DesignRun) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeDesignRun(data []byte) (model.DesignRun, error) {
	var run model.DesignRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.DesignRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.DesignRun{}, err
	}
	return run, nil
}

func EncodeStructureRecord(record model.StructureRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeStructureRecord(data []byte) (model.StructureRecord, error) {
	var record model.StructureRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.StructureRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.StructureRecord{}, err
	}
	return record, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeIterationDiagnostics(diagnostics []model.IterationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeIterationDiagnostics(data []byte) ([]model.IterationDiagnostics, error) {
	var diagnostics []model.IterationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func EncodeTopCandidates(top []model.TopCandidateRecord) ([]byte, error) {
	return json.Marshal(top)
}

func DecodeTopCandidates(data []byte) ([]model.TopCandidateRecord, error) {
	var top []model.TopCandidateRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	return top, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
