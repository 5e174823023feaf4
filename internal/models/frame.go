package models

// Frame is a discourse category label.
type Frame string

const (
	FrameToolProductivity   Frame = "Tool/Productivity"
	FrameRisksEthics        Frame = "Risks/Ethics"
	FrameLaborMarket        Frame = "Labor Market"
	FrameTechnicalCuriosity Frame = "Technical/Curiosity"
	FrameCultureNews        Frame = "Culture/News"
	FrameOtherUnrelated     Frame = "Other/Unrelated"

	// FrameError marks a document whose classification failed.
	FrameError Frame = "ERROR"
)

// FrameDefinition pairs a label with the one-sentence definition shown to the model.
type FrameDefinition struct {
	Label      Frame
	Definition string
}

// Frames is the closed category set, in prompt order.
var Frames = []FrameDefinition{
	{FrameToolProductivity, "The text discusses practical use of AI to solve problems, create or work."},
	{FrameRisksEthics, "The text focuses on dangers, moral dilemmas, bias or the need to regulate AI."},
	{FrameLaborMarket, "The text addresses the impact of AI on jobs and professions."},
	{FrameTechnicalCuriosity, "The text is about how the technology works, specific models or technical aspects."},
	{FrameCultureNews, "The text mentions AI in the context of entertainment, general news, art or memes."},
	{FrameOtherUnrelated, "The text does not fit any of the categories above."},
}

// IsKnown reports whether label belongs to the closed category set.
func IsKnown(label string) bool {
	for _, f := range Frames {
		if string(f.Label) == label {
			return true
		}
	}
	return false
}

// ClassificationResult is the model's answer for one document.
type ClassificationResult struct {
	Frame         string `json:"frame"`
	Justification string `json:"justificativa"`
}
