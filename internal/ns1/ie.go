package ns1

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// InformationElement is one 802.11 tagged parameter from a version 12
// network record.
type InformationElement struct {
	ID   layers.Dot11InformationElementID
	Name string
	OUI  []byte // vendor specific elements only
	Info []byte
}

// InformationElements decodes IEData. Elements decoded before a truncated
// element are returned together with the error.
func (n *Network) InformationElements() ([]InformationElement, error) {
	return ParseInformationElements(n.IEData)
}

// ParseInformationElements decodes a run of 802.11 information elements.
func ParseInformationElements(data []byte) ([]InformationElement, error) {
	var out []InformationElement
	offset := 0
	for offset < len(data) {
		var ie layers.Dot11InformationElement
		if err := ie.DecodeFromBytes(data[offset:], gopacket.NilDecodeFeedback); err != nil {
			return out, fmt.Errorf("information element at offset %d: %w", offset, err)
		}
		out = append(out, InformationElement{
			ID:   ie.ID,
			Name: ie.ID.String(),
			OUI:  ie.OUI,
			Info: ie.Info,
		})
		offset += len(ie.Contents)
	}
	return out, nil
}

// IESSID returns the SSID element when the information elements carry one.
func (n *Network) IESSID() (string, bool) {
	elems, _ := n.InformationElements()
	for _, e := range elems {
		if e.ID == layers.Dot11InformationElementIDSSID {
			return string(e.Info), true
		}
	}
	return "", false
}
