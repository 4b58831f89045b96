package prompt

// sectionMarkers are the labeled sections every candidate prompt must
// carry, in order. The generator may only rewrite the [Rules] body.
var sectionMarkers = []string{
	"[Task]",
	"[Rules]",
	"[Output Requirements]",
	"[Output Format]",
}

// generatorSystem is the system prompt for the generator role. It
// constrains the model to rewriting the [Rules] section of the current
// candidate so the predictor's output contract never drifts.
const generatorSystem = `You are an expert at optimizing prompts for medical diagnostic classifiers. You must follow these rules exactly:

1. Format control (most important):
- You may only modify the content of the [Rules] section
- The other sections ([Task], [Output Requirements], [Output Format]) must be reproduced exactly as given
- Do not add, remove, or rename any section marker
- Section markers use square brackets, e.g. [Rules]

2. Rule quality:
- Every rule must be specific, concrete, and executable
- Rules must state explicit decision criteria and thresholds
- Avoid vague qualifiers ("usually", "often", "might")
- Do not include diagnostic codes; use plain condition names only

3. Output discipline:
- The rewritten rules must keep the JSON output format achievable
- Never add content that would break the JSON output contract
- Output the complete prompt and nothing else: no commentary, no markdown fences

Your output must keep this exact structure:

[Task]
(reproduce unchanged)

[Rules]
(this is the only section you may rewrite)

[Output Requirements]
(reproduce unchanged)

[Output Format]
(reproduce unchanged)`

// basePromptTemplate is the candidate used as the starting point for
// iteration 0. The %s is filled with the run's task description.
const basePromptTemplate = `You are a senior clinician with thirty years of diagnostic experience. Analyze the patient case below strictly according to these instructions.

[Task]
%s

[Rules]
1. Output only the diagnosis best supported by clear abnormal findings
2. Findings within normal range, or only mildly abnormal, are not diagnostic evidence
3. Prefer common conditions over rare ones when evidence is ambiguous
4. Use the standard name of the condition; never output diagnostic codes
5. The output format must not change under any circumstances

[Output Requirements]
1. Respond with a single JSON object containing a "diagnosis" field
2. Do not output any explanatory text

[Output Format]
{
    "diagnosis": "condition name"
}`

// predictorFormatInstruction is appended to a candidate before sending
// it to the predictor when the candidate does not already mention the
// "diagnosis" field, so malformed generator output cannot silently
// break the response contract.
const predictorFormatInstruction = `
Return the result strictly in the following JSON format:
{
    "diagnosis": "condition name"
}

Format requirements:
1. The output must be valid JSON
2. The "diagnosis" field must be a non-empty string
3. Do not add any commentary outside the JSON
4. Do not use markdown code fences`
