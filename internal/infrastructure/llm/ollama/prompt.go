package ollama

const maxPromptInput = 2000

func clip(text string) string {
	if len(text) > maxPromptInput {
		return text[:maxPromptInput]
	}
	return text
}

func buildIntentPrompt(text string) string {
	return `You route messages for a question answering assistant.
Label the message "retrieval" when it asks for a fact that could be looked up in an encyclopedia,
and "chat" when it is small talk, a greeting or an opinion.
Return strict JSON object {"intent": "retrieval" | "chat"}. No markdown, no extra keys.

Message:
` + clip(text)
}

func buildChatPrompt(text string) string {
	return `You are a friendly conversational assistant. Reply in one or two short sentences.

User: ` + clip(text) + `
Assistant:`
}
