package diffbot

import (
	"bytes"
	"encoding/csv"
	"io"
)

// Format selects the job data encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// unwrapObjects accepts either {"objects": [...]} or a bare array.
func unwrapObjects(body []byte) ([]Object, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []Object{}, nil
	}

	if trimmed[0] == '[' {
		var objs []Object
		if err := decodeJSON(trimmed, &objs); err != nil {
			return nil, err
		}
		if objs == nil {
			objs = []Object{}
		}
		return objs, nil
	}

	var env struct {
		Objects []Object `json:"objects"`
	}
	if err := decodeJSON(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Objects == nil {
		return []Object{}, nil
	}
	return env.Objects, nil
}

// parseCSV turns a header row plus records into one Object per record.
func parseCSV(body []byte) ([]Object, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []Object{}, nil
	}
	if err != nil {
		return nil, transportError("failed to parse csv", err)
	}

	objs := []Object{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, transportError("failed to parse csv", err)
		}
		obj := make(Object, len(header))
		for i, h := range header {
			if i < len(rec) {
				obj[h] = rec[i]
			}
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// decodeObject decodes a single JSON object body.
func decodeObject(body []byte) (Object, error) {
	var obj Object
	if err := decodeJSON(body, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
