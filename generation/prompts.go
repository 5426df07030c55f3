package generation

// SystemPrompt sets the tutor role for every generation call.
const SystemPrompt = `You are an experienced university tutor who turns lecture and video transcripts into clear, accurate study material.
Stay faithful to the transcript. Do not invent facts that are not supported by the transcript or the supplied references.
When asked for JSON, reply with JSON only: no commentary, no markdown outside the JSON.`

const summaryInstruction = `Write a concise summary of the content above in 150 to 300 words.
Respond with JSON of the form {"summary": "..."}.`

const keywordsInstruction = `List the 5 to 10 most important keywords or technical terms from the content above.
Respond with a JSON array of strings, for example ["term one", "term two"].`

const highlightsInstruction = `Identify the 3 to 6 most important highlights of the content above.
Respond with a JSON array of objects of the form {"highlight": "short title", "description": "one or two sentences"}.`

const chaptersInstruction = `Split the content above into logical chapters in the order they occur.
Respond with a JSON array of objects of the form {"id": 1, "title": "...", "time": "mm:ss or empty", "summary": "..."}.`

const knowledgePointsInstruction = `Using the references and the content above, extract the key knowledge points a learner must master.
Respond with a JSON array of objects of the form {"name": "...", "description": "...", "prerequisites": ["..."]}.
Use an empty prerequisites array when there are none.`

const studyGuideInstruction = `Using the references and the content above, write a study guide for a learner new to this topic.
Respond with a JSON object of the form {"goals": ["..."], "steps": ["..."], "tips": ["..."], "furtherReading": ["..."]}.`

const multipleChoiceInstruction = `Using the references and the content above, write 5 multiple-choice questions that test understanding rather than recall.
Respond with JSON of the form {"multipleChoice": [{"question": "...", "options": ["A. ...", "B. ...", "C. ...", "D. ..."], "answer": "A", "explanation": "..."}]}.`

const essayInstruction = `Using the references and the content above, write 2 or 3 short-answer questions with reference answers.
Respond with JSON of the form {"essay": [{"question": "...", "answer": "..."}]}.`

// PlainPrompt is the user prompt for modules that only see the transcript.
func PlainPrompt(transcript, instruction string) string {
	return transcript + "\n\n" + instruction
}

// RAGPrompt is the user prompt for modules that also see the literature context.
func RAGPrompt(referencesContext, transcript, instruction string) string {
	return referencesContext + "\n\n" + transcript + "\n\n" + instruction
}
