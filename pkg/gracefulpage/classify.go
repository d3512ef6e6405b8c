package gracefulpage

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrorKind is the classifier's verdict on an engine error.
type ErrorKind int

const (
	// KindUnclassified errors are returned to the caller untouched.
	KindUnclassified ErrorKind = iota
	// KindInterrupted is a navigation interrupted by another navigation to the same URL.
	KindInterrupted
	// KindTimeout is an engine timeout, e.g. "Timeout 30000ms exceeded".
	KindTimeout
	// KindNetwork is a transient Chromium network error code.
	KindNetwork
	// KindCrashed is a tab crash.
	KindCrashed
	// KindMemoryReclaimed is the engine discarding a handle under heap pressure.
	KindMemoryReclaimed
)

// Action is what the recovery loop does about an error.
type Action int

const (
	// ActionPropagate returns the error to the caller.
	ActionPropagate Action = iota
	// ActionRetry retries on the same tab.
	ActionRetry
	// ActionRestart replaces the tab, then retries.
	ActionRestart
)

var (
	timeoutPattern  = regexp.MustCompile(`Timeout \w+ exceeded`)
	crashedPattern  = regexp.MustCompile(`(?i)page crashed`)
	anyInterruption = regexp.MustCompile(`Navigation to ".*" is interrupted by another navigation to ".*"`)

	memoryReclaimedMessage = "The object has been collected to prevent unbounded heap growth"

	networkErrorCodes = []string{
		"ERR_INTERNET_DISCONNECTED",
		"ERR_NETWORK_CHANGED",
		"ERR_CONNECTION_RESET",
		"ERR_SOCKET_NOT_CONNECTED",
		"ERR_ABORTED",
		"ERR_ADDRESS_UNREACHABLE",
		"ERR_NETWORK_IO_SUSPENDED",
	}
)

func (k ErrorKind) String() string {
	switch k {
	case KindInterrupted:
		return "interrupted"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindCrashed:
		return "crashed"
	case KindMemoryReclaimed:
		return "memory_reclaimed"
	default:
		return "unclassified"
	}
}

// Action maps the kind to its recovery action.
func (k ErrorKind) Action() Action {
	switch k {
	case KindInterrupted, KindTimeout, KindNetwork:
		return ActionRetry
	case KindCrashed, KindMemoryReclaimed:
		return ActionRestart
	default:
		return ActionPropagate
	}
}

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry-in-place"
	case ActionRestart:
		return "retry-after-restart"
	default:
		return "non-retryable"
	}
}

// ClassifyNavigation classifies an error raised while navigating to url.
// Memory-reclaimed errors are not recognised here; see ClassifyOperation.
func ClassifyNavigation(url string, err error) ErrorKind {
	if err == nil {
		return KindUnclassified
	}
	message := err.Error()

	quoted := quoteURL(url)
	if strings.Contains(message, "Navigation to "+quoted+" is interrupted by another navigation to "+quoted) {
		return KindInterrupted
	}
	return classifyMessage(message)
}

// ClassifyOperation classifies an error escaping an AutoRetryWhenFailed
// operation. Only engine memory reclamation is recoverable there.
func ClassifyOperation(err error) ErrorKind {
	if err != nil && strings.Contains(err.Error(), memoryReclaimedMessage) {
		return KindMemoryReclaimed
	}
	return KindUnclassified
}

// KindOf applies every rule, accepting an interruption between any two URLs.
// It is meant for reporting; the recovery loop uses the narrower classifiers.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnclassified
	}
	message := err.Error()
	if strings.Contains(message, memoryReclaimedMessage) {
		return KindMemoryReclaimed
	}
	if anyInterruption.MatchString(message) {
		return KindInterrupted
	}
	return classifyMessage(message)
}

func classifyMessage(message string) ErrorKind {
	if timeoutPattern.MatchString(message) {
		return KindTimeout
	}
	for _, code := range networkErrorCodes {
		if strings.Contains(message, code) {
			return KindNetwork
		}
	}
	if crashedPattern.MatchString(message) {
		return KindCrashed
	}
	return KindUnclassified
}

// quoteURL renders url the way the engine quotes it in interruption messages:
// as JSON.stringify would, so without HTML escaping and with U+2028 and U+2029
// left literal. Invalid UTF-8 becomes U+FFFD, as it does on its way to the
// engine over the JSON protocol.
func quoteURL(url string) string {
	var b strings.Builder
	b.WriteByte('"')
	for {
		i := strings.IndexAny(url, "\u2028\u2029")
		if i < 0 {
			b.WriteString(jsonStringBody(url))
			break
		}
		b.WriteString(jsonStringBody(url[:i]))
		r, size := utf8.DecodeRuneInString(url[i:])
		b.WriteRune(r)
		url = url[i+size:]
	}
	b.WriteByte('"')
	return b.String()
}

// jsonStringBody is s encoded as a JSON string, without the quotes.
func jsonStringBody(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return s
	}
	encoded := strings.TrimSuffix(buf.String(), "\n")
	return encoded[1 : len(encoded)-1]
}
