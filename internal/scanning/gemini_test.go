package scanning

import (
	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Gemini", func() {
	Describe("configureModel", func() {
		It("sets the system prompt and zero temperature", func() {
			model := &genai.GenerativeModel{}
			configureModel(model)

			Expect(model.SystemInstruction).NotTo(BeNil())
			Expect(model.SystemInstruction.Parts).To(Equal([]genai.Part{genai.Text(systemPrompt)}))
			Expect(model.Temperature).NotTo(BeNil())
			Expect(*model.Temperature).To(BeZero())
		})
	})

	Describe("candidateText", func() {
		It("joins the text parts of the first candidate", func() {
			resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{
					genai.Text(`{"DocumentType":`),
					genai.ImageData("png", []byte{1}),
					genai.Text(`"check"}`),
				}},
			}}}

			text, err := candidateText(resp)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"DocumentType":"check"}`))
		})

		It("fails without candidates", func() {
			_, err := candidateText(&genai.GenerateContentResponse{})
			Expect(err).To(MatchError(ContainSubstring("no candidates")))
		})

		It("fails when no part is text", func() {
			resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.ImageData("png", []byte{1})}},
			}}}

			_, err := candidateText(resp)
			Expect(err).To(MatchError(ContainSubstring("empty answer")))
		})
	})
})
