package gemini

import "fmt"

// SystemPrompt frames every content query sent to the model.
const SystemPrompt = `You are an assistant that helps analyze screen content captured by Screenpipe.
Your task is to answer questions about what the user has seen on their screen.
The text provided comes from OCR (Optical Character Recognition) of screen captures,
so it may contain errors or incomplete information.
Be concise and focus on extracting the most relevant information from the screen content.`

// probePrompt is the minimal request body used by Probe.
const probePrompt = "Hello, are you working?"

// BuildPrompt combines the system preamble, the screen transcript, and the
// user instruction into the single text part the API expects.
func BuildPrompt(transcript, instruction string) string {
	return fmt.Sprintf("%s\n\nHere is the text captured from my screen:\n\n%s\n\nBased on this content, %s",
		SystemPrompt, transcript, instruction)
}
