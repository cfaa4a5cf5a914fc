package deepseek

// DefaultPersona is the fixed system prompt for the quant assistant. It is
// configured at startup and never user-controlled.
const DefaultPersona = `You are X-TradeBrain, a quantitative trading architect fluent in Python.
Rules:
1. When the user asks for a strategy, answer with a Python code block.
2. Strategy code must include the standard initialize and handle_data functions.
3. Comment the code.
4. No filler — get straight to the point.`

// platformNames maps the front end's platform selector values to the label
// injected into the persona. Unknown values get no platform hint.
var platformNames = map[string]string{
	"ptrade":    "PTrade",
	"qmt":       "QMT",
	"joinquant": "JoinQuant",
}

func platformHint(platform string) string {
	name, ok := platformNames[platform]
	if !ok {
		return ""
	}
	return "\nTarget backtesting platform: " + name + ". Use its native strategy API."
}
