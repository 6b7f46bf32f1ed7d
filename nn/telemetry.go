package nn

import "fmt"

// ModelTelemetry describes the structure of a model
type ModelTelemetry struct {
	ID          string           `json:"id"`
	TotalLayers int              `json:"total_layers"`
	TotalParams int              `json:"total_parameters"`
	Layers      []LayerTelemetry `json:"layers"`
}

// LayerTelemetry contains metadata about one layer of a model
type LayerTelemetry struct {
	Path       string `json:"path"` // e.g. "encoder.forget"
	Activation string `json:"activation"`
	Parameters int    `json:"parameters"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	Stateful   bool   `json:"stateful,omitempty"`
}

// ExtractBlueprint lists the layers of a Layer, RecurrentCell, Classifier,
// Encoder, Decoder or SeqToSeq in visiting order.
func ExtractBlueprint(id string, model WeightVisitor) ModelTelemetry {
	tel := ModelTelemetry{ID: id}
	add := func(path string, l *Layer) {
		tel.Layers = append(tel.Layers, extractLayerTelemetry(path, l))
	}
	addCell := func(prefix string, c *RecurrentCell) {
		add(prefix+"main", c.Main)
		add(prefix+"forget", c.Forget)
		add(prefix+"input_gate", c.InputGate)
		add(prefix+"output_gate", c.OutputGate)
	}

	switch m := model.(type) {
	case *Layer:
		add("layer", m)
	case *RecurrentCell:
		addCell("", m)
	case *Classifier:
		add("middle", m.Middle)
		add("output", m.OutputLayer)
	case *Encoder:
		addCell("cell.", m.Cell)
		add("output", m.OutputLayer)
	case *Decoder:
		addCell("cell.", m.Cell)
		add("output", m.OutputLayer)
	case *SeqToSeq:
		addCell("encoder.", m.EncoderCell)
		addCell("decoder.", m.DecoderCell)
		add("output", m.OutputLayer)
	default:
		panic(fmt.Sprintf("nn: no blueprint for %T", model))
	}

	tel.TotalLayers = len(tel.Layers)
	for _, l := range tel.Layers {
		tel.TotalParams += l.Parameters
	}
	return tel
}

func extractLayerTelemetry(path string, l *Layer) LayerTelemetry {
	w := &l.Weights
	return LayerTelemetry{
		Path:       path,
		Activation: l.Activation.String(),
		Parameters: len(w.Bias) + len(w.Input) + len(w.State),
		InputSize:  w.In,
		OutputSize: w.Out,
		Stateful:   w.Stateful(),
	}
}
