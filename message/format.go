package message

import (
	"fmt"
	"strings"
)

// FormatDuration renders seconds as "45s" or "2m 5s".
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.0fs", seconds)
	}
	total := int(seconds)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// FormatTimestamp renders a segment offset as "[MM:SS]".
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

// HelpText builds the usage message shown for /help and unsupported input.
func HelpText(maxSeconds float64, maxFileMB int, extensions []string) string {
	var b strings.Builder
	b.WriteString("I can transcribe voice notes and audio files for you.\n\n")
	b.WriteString("*What to send:*\n")
	b.WriteString("- Voice notes (just record and send)\n")
	b.WriteString("- Audio files (drag & drop)\n")
	b.WriteString("- WhatsApp voice exports (.opus, .ogg, .m4a)\n\n")
	if len(extensions) > 0 {
		b.WriteString("*Supported formats:*\n")
		b.WriteString(strings.Join(extensions, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("*Options (add to caption):*\n")
	b.WriteString("- `lang=XX` - Force language (en, es, ca, fr, etc.)\n")
	b.WriteString("- `timestamps=1` - Include timestamps\n")
	b.WriteString("- `translate=XX` - Translate the result\n")
	b.WriteString("- `summary=1` - Summarize instead of full text\n")
	b.WriteString("- `voice=1` - Also reply with a voice message\n\n")
	b.WriteString("*Examples:*\n")
	b.WriteString("- Send a voice note (auto-detect language)\n")
	b.WriteString("- Send audio with caption: `lang=es`\n")
	b.WriteString("- Send file with caption: `timestamps=1 lang=en`\n\n")
	b.WriteString("*Limits:*\n")
	fmt.Fprintf(&b, "- Max duration: %s\n", FormatDuration(maxSeconds))
	fmt.Fprintf(&b, "- Max file size: %dMB", maxFileMB)
	return b.String()
}
