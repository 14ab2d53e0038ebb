package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const segmentSize = 1448

func main() {
	outDir := flag.String("o", "testdata", "Output directory")
	labels := flag.String("algorithms", "Reno,Vegas,Cubic,BBR", "Comma-separated algorithm labels")
	window := flag.Duration("window", 5*time.Second, "Simulated observation window")
	withPcap := flag.Bool("pcap", false, "Also write sender/receiver pcap pairs")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	rng := rand.New(rand.NewSource(*seed))

	for _, label := range strings.Split(*labels, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		name := strings.ToLower(label)

		// 1 to 8 Mbps over the window, a few percent loss, 20 to 80 ms one-way delay.
		rate := 1e6 + rng.Float64()*7e6
		rxBytes := uint64(rate * window.Seconds() / 8)
		rxPackets := rxBytes / segmentSize
		lost := rxPackets * uint64(rng.Intn(4)) / 100
		txPackets := rxPackets + lost
		oneWay := time.Duration(20+rng.Intn(60)) * time.Millisecond
		delaySum := time.Duration(rxPackets) * oneWay

		path := filepath.Join(*outDir, name+".flowmon")
		if err := writeFlowmon(path, txPackets*segmentSize, rxBytes, txPackets, rxPackets, lost, delaySum); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.Printf("Wrote %s (%.2f Mbps, %d packets)", path, rate/1e6, rxPackets)

		if *withPcap {
			sender := filepath.Join(*outDir, name+"-0-0.pcap")
			receiver := filepath.Join(*outDir, name+"-1-0.pcap")
			if err := writePcapPair(sender, receiver, int(txPackets), int(lost), oneWay, rng); err != nil {
				log.Fatalf("Failed to write pcaps for %s: %v", label, err)
			}
			log.Printf("Wrote %s and %s", sender, receiver)
		}
	}
}

func writeFlowmon(path string, txBytes, rxBytes, txPackets, rxPackets, lost uint64, delaySum time.Duration) error {
	doc := fmt.Sprintf(`<?xml version="1.0" ?>
<FlowMonitor>
  <FlowStats>
    <Flow flowId="1" timeFirstTxPacket="+0.0ns" txBytes="%d" rxBytes="%d" txPackets="%d" rxPackets="%d" lostPackets="%d" delaySum="+%d.0ns" jitterSum="+0.0ns" timesForwarded="0">
    </Flow>
  </FlowStats>
</FlowMonitor>
`, txBytes, rxBytes, txPackets, rxPackets, lost, delaySum.Nanoseconds())
	return os.WriteFile(path, []byte(doc), 0644)
}

// writePcapPair writes txPackets segments to the sender capture and all but
// lost of them, shifted by oneWay, to the receiver capture.
func writePcapPair(senderPath, receiverPath string, txPackets, lost int, oneWay time.Duration, rng *rand.Rand) error {
	sf, err := os.Create(senderPath)
	if err != nil {
		return err
	}
	defer sf.Close()
	rf, err := os.Create(receiverPath)
	if err != nil {
		return err
	}
	defer rf.Close()

	sender := pcapgo.NewWriter(sf)
	receiver := pcapgo.NewWriter(rf)
	for _, w := range []*pcapgo.Writer{sender, receiver} {
		if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
			return err
		}
	}

	dropped := make(map[int]bool, lost)
	for len(dropped) < lost {
		dropped[rng.Intn(txPackets)] = true
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := time.Millisecond
	for i := 0; i < txPackets; i++ {
		data, err := segment(uint32(1 + i*segmentSize))
		if err != nil {
			return err
		}
		sentAt := start.Add(time.Duration(i) * interval)
		ci := gopacket.CaptureInfo{Timestamp: sentAt, CaptureLength: len(data), Length: len(data)}
		if err := sender.WritePacket(ci, data); err != nil {
			return err
		}
		if dropped[i] {
			continue
		}
		ci.Timestamp = sentAt.Add(oneWay)
		if err := receiver.WritePacket(ci, data); err != nil {
			return err
		}
	}
	return nil
}

func segment(seq uint32) ([]byte, error) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:    net.IP{10, 1, 1, 1},
		DstIP:    net.IP{10, 1, 2, 2},
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcpLayer := &layers.TCP{
		SrcPort: 49153,
		DstPort: 8080,
		Seq:     seq,
		ACK:     true,
		Window:  65535,
	}
	tcpLayer.SetNetworkLayerForChecksum(ipLayer)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, tcpLayer, gopacket.Payload(make([]byte, segmentSize))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
