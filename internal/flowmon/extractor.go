// Package flowmon extracts flow observations from ns-3 FlowMonitor XML output.
//
// The extractor follows a "first flow wins" contract: only the first
// FlowStats/Flow record of a document is read, later records are ignored.
// Simulations driven by this tool carry a single bulk TCP flow per run, so the
// first record is that flow.
package flowmon

import (
	"TCPSpectra/internal/model"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrMissingFlowData is returned when a document holds no flow records.
	ErrMissingFlowData = errors.New("missing flow data")
	// ErrMalformedAttribute is returned when a flow attribute is absent or not numeric.
	ErrMalformedAttribute = errors.New("malformed flow attribute")
)

const nanosecondSuffix = "ns"

// Parse scans the document in order and converts the first flow record into an observation.
func Parse(r io.Reader) (model.FlowObservation, error) {
	decoder := xml.NewDecoder(r)

	// path holds the local names of the open elements, root first.
	var path []string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return model.FlowObservation{}, ErrMissingFlowData
		}
		if err != nil {
			return model.FlowObservation{}, fmt.Errorf("failed to decode flow monitor document: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			path = append(path, el.Name.Local)
			if isFlowRecord(path) {
				return parseFlow(el.Attr)
			}
		case xml.EndElement:
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}
}

// ParseFile opens and parses a FlowMonitor document from disk.
func ParseFile(filePath string) (model.FlowObservation, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("failed to open flow monitor file '%s': %w", filePath, err)
	}
	defer file.Close()

	obs, err := Parse(file)
	if err != nil {
		return model.FlowObservation{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return obs, nil
}

// isFlowRecord reports whether path is <root>/FlowStats/Flow.
func isFlowRecord(path []string) bool {
	return len(path) == 3 && path[1] == "FlowStats" && path[2] == "Flow"
}

func parseFlow(attrs []xml.Attr) (model.FlowObservation, error) {
	values := make(map[string]string, len(attrs))
	for _, a := range attrs {
		values[a.Name.Local] = a.Value
	}

	var (
		obs model.FlowObservation
		err error
	)
	if obs.TxBytes, err = requiredUint(values, "txBytes"); err != nil {
		return model.FlowObservation{}, err
	}
	if obs.RxBytes, err = requiredUint(values, "rxBytes"); err != nil {
		return model.FlowObservation{}, err
	}
	if obs.DelaySumSeconds, err = delaySeconds(values); err != nil {
		return model.FlowObservation{}, err
	}

	if obs.TxPackets, err = optionalUint(values, "txPackets"); err != nil {
		return model.FlowObservation{}, err
	}
	if obs.RxPackets, err = optionalUint(values, "rxPackets"); err != nil {
		return model.FlowObservation{}, err
	}
	if obs.LostPackets, err = optionalUint(values, "lostPackets"); err != nil {
		return model.FlowObservation{}, err
	}
	flowID, err := optionalUint(values, "flowId")
	if err != nil {
		return model.FlowObservation{}, err
	}
	if flowID > uint64(^uint32(0)) {
		return model.FlowObservation{}, fmt.Errorf("%w: flowId %d out of range", ErrMalformedAttribute, flowID)
	}
	obs.FlowID = uint32(flowID)

	return obs, nil
}

func requiredUint(values map[string]string, name string) (uint64, error) {
	raw, ok := values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is missing", ErrMalformedAttribute, name)
	}
	return parseUint(raw, name)
}

func optionalUint(values map[string]string, name string) (uint64, error) {
	raw, ok := values[name]
	if !ok {
		return 0, nil
	}
	return parseUint(raw, name)
}

func parseUint(raw, name string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrMalformedAttribute, name, raw)
	}
	return v, nil
}

// delaySeconds converts delaySum, e.g. "+2000000000.0ns", to seconds.
// A value without the ns suffix is read as a bare nanosecond count.
func delaySeconds(values map[string]string) (float64, error) {
	raw, ok := values["delaySum"]
	if !ok {
		return 0, fmt.Errorf("%w: delaySum is missing", ErrMalformedAttribute)
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), nanosecondSuffix)
	ns, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || ns < 0 || math.IsNaN(ns) || math.IsInf(ns, 0) {
		return 0, fmt.Errorf("%w: delaySum=%q is not a non-negative number", ErrMalformedAttribute, raw)
	}
	return ns / 1e9, nil
}
