package summary

// PromptVersion is stored on every generated summary so a prompt change is
// distinguishable in review statistics.
const PromptVersion = "v1"

const systemPrompt = `You are a medical documentation assistant.
You do NOT diagnose.
You do NOT prescribe.
You only summarize doctor-patient conversation into clinical notes.

Rules:
- Do not invent information
- Do not add diagnosis
- Do not add medication
- Only summarize what was spoken`

const summaryPromptTemplate = `Given the following doctor-patient transcript, extract:

1. Visit Summary (2-3 sentences)
2. Key Complaints (bullet points)
3. Action Points (tests, follow-ups mentioned)

Transcript:
%s

Return a JSON object with keys "summary" (string), "complaints" (array of strings) and "action_points" (array of strings). Return only the JSON object.`
