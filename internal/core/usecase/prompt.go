package usecase

import (
	"strings"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

// InsufficientInformation is the fallback the model is told to state when the context does not answer the question.
const InsufficientInformation = "I do not have enough information to answer."

const SystemInstruction = "You are a specialized medical assistant. " +
	"Answer the user's question strictly using the provided context. " +
	"If the answer is not contained within the context, state that you do not have enough information to answer, " +
	"for example: \"" + InsufficientInformation + "\" " +
	"Maintain a professional tone, limit your response to a maximum of three sentences, " +
	"and prioritize factual accuracy over detail."

// ContextSeparator keeps chunk boundaries visible to the model.
const ContextSeparator = "\n\n---\n\n"

func AssemblePrompt(question string, result domain.RetrievalResult) domain.Prompt {
	texts := make([]string, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}

	return domain.Prompt{
		SystemInstruction: SystemInstruction,
		Context:           strings.Join(texts, ContextSeparator),
		Question:          question,
	}
}
