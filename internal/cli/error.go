package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// keys rendered by FormatError itself rather than in the detail list
var shownKeys = map[string]bool{
	"file": true, "line": true, "source": true, "helps": true,
}

// FormatError formats an error for terminal display in rustc style:
//
//	error[E5001]: generated module does not parse
//	  --> User.js:7:12
//	   |
//	 7 |     return User.init({, {});
//	   |            ^
//	   |
//	   = cause: Expected "}" but found ","
//	help: regenerate the model
//
// Errors that are not *alerr.Error print as a single "error:" line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var ae *alerr.Error
	if errors.As(err, &ae) {
		return formatCodedError(ae)
	}
	return Error("error") + ": " + err.Error() + "\n"
}

func formatCodedError(err *alerr.Error) string {
	var b strings.Builder
	ctx := err.GetContext()

	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(string(err.GetCode())))
	b.WriteString("]: ")
	b.WriteString(err.GetMessage())
	b.WriteString("\n")

	file, _ := ctx["file"].(string)
	line, _ := ctx["line"].(int)
	col, _ := ctx["column"].(int)

	if file != "" {
		loc := file
		if line > 0 {
			loc += ":" + strconv.Itoa(line)
			if col > 0 {
				loc += ":" + strconv.Itoa(col)
			}
		}
		b.WriteString("  ")
		b.WriteString(render(stylePipe, "-->"))
		b.WriteString(" ")
		b.WriteString(FilePath(loc))
		b.WriteString("\n")
	}

	gutter := "  "
	if source, ok := ctx["source"].(string); ok && line > 0 {
		gutter = strings.Repeat(" ", len(strconv.Itoa(line))+1)
		b.WriteString(formatSourceContext(line, source, col))
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if shownKeys[k] {
			continue
		}
		// A numeric column was already printed in the location.
		if _, isInt := ctx[k].(int); k == "column" && isInt {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 || err.GetCause() != nil {
		b.WriteString(gutter)
		b.WriteString(Pipe())
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s= %s: %v\n", gutter, Dim(k), ctx[k])
	}
	if cause := err.GetCause(); cause != nil {
		fmt.Fprintf(&b, "%s= %s: %s\n", gutter, Note("cause"), cleanCauseMessage(cause.Error()))
	}

	for _, help := range err.Helps() {
		b.WriteString(Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	return b.String()
}

// cleanCauseMessage keeps the first line of a cause and drops goja's
// " at <frame>" suffix.
func cleanCauseMessage(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if i := strings.Index(msg, " at "); i >= 0 && strings.Contains(msg[i:], "(native)") {
		msg = strings.TrimSpace(msg[:i])
	}
	return msg
}

// formatSourceContext renders one source line with a caret under col.
func formatSourceContext(line int, source string, col int) string {
	var b strings.Builder

	lineStr := strconv.Itoa(line)
	padding := strings.Repeat(" ", len(lineStr))

	b.WriteString(padding + " " + Pipe() + "\n")
	b.WriteString(LineNum(lineStr) + " " + Pipe() + " " + source + "\n")
	if col > 0 {
		b.WriteString(padding + " " + Pipe() + " ")
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString(Pointer("^"))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatWarning formats a warning line.
func FormatWarning(msg string) string {
	return Warning("warning") + ": " + msg + "\n"
}

// FormatNote formats a note line.
func FormatNote(msg string) string {
	return Note("note") + ": " + msg + "\n"
}

// FormatSuccess formats a success line.
func FormatSuccess(msg string) string {
	return Success("success") + ": " + msg + "\n"
}
