package pcaptrace

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/factory"
	"TCPSpectra/internal/model"
	"fmt"
)

func init() {
	factory.RegisterSource(config.SourcePcap, NewSource)
}

// Source reads the observation of one algorithm from a sender/receiver capture pair.
type Source struct {
	senderPath   string
	receiverPath string
}

// NewSource creates a pcap source for the definition's capture pair.
func NewSource(def config.AlgorithmDef) (model.Source, error) {
	if def.SenderPcap == "" || def.ReceiverPcap == "" {
		return nil, fmt.Errorf("pcap source requires sender_pcap and receiver_pcap")
	}
	return &Source{senderPath: def.SenderPcap, receiverPath: def.ReceiverPcap}, nil
}

// Observe reads both captures and returns the first flow's observation.
func (s *Source) Observe() (model.FlowObservation, error) {
	return ExtractFiles(s.senderPath, s.receiverPath)
}

// Name returns the capture pair as "sender -> receiver".
func (s *Source) Name() string {
	return s.senderPath + " -> " + s.receiverPath
}
