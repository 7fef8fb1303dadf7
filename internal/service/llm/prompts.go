package llm

const regularPrompt = `You are a friendly assistant! Keep your responses concise and helpful.`

const artifactsPrompt = `You have access to document tools for writing and content creation tasks.

Use create_document for substantial content (essays, code, spreadsheets) the user will want to keep or edit. Use update_document to revise an existing document when the user asks for changes. Use request_suggestions when the user asks for feedback on a document. For short conversational answers, reply directly without creating a document.

Do not update a document right after creating it; wait for user feedback first.`

// systemPrompt builds the system prompt for a chat turn. Reasoning models run
// without tools, so they get the plain prompt.
func systemPrompt(reasoningModel bool) string {
	if reasoningModel {
		return regularPrompt
	}
	return regularPrompt + "\n\n" + artifactsPrompt
}
