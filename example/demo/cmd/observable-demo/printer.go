package main

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Printer writes one JSON line per printed entry.
type Printer struct {
	encoder *jsoniter.Encoder
}

type line struct {
	Scenario string `json:"scenario"`
	Payload  any    `json:"payload"`
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{encoder: jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)}
}

func (p *Printer) Print(scenario string, payload any) error {
	return p.encoder.Encode(line{Scenario: scenario, Payload: payload})
}

// printingObserver prints every notification it receives, tagged with the subscriber's name.
type printingObserver struct {
	scenario   string
	subscriber string
	printer    *Printer
}

type notification struct {
	Subscriber string `json:"subscriber"`
	Kind       string `json:"kind"`
	Value      *int   `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (o printingObserver) Next(value int) error {
	return o.printer.Print(o.scenario, notification{Subscriber: o.subscriber, Kind: "next", Value: &value})
}

func (o printingObserver) Error(err error) error {
	return o.printer.Print(o.scenario, notification{Subscriber: o.subscriber, Kind: "error", Error: err.Error()})
}

func (o printingObserver) Complete() error {
	return o.printer.Print(o.scenario, notification{Subscriber: o.subscriber, Kind: "complete"})
}
