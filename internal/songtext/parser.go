// Package songtext converts a raw hymnal text file into the corpus JSON
// asset. This is an offline tool: it runs once when the corpus source
// changes and is not part of the runtime system.
package songtext

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// Segment is a body unit in the corpus asset shape.
type Segment struct {
	ID       int     `json:"id"`
	Type     string  `json:"type"`
	Content  *string `json:"content"`
	RepeatID *string `json:"repeatId"`
}

// Song is a corpus asset entry; the asset names the number field "n".
type Song struct {
	ID    int       `json:"id"`
	N     int       `json:"n"`
	Title string    `json:"title"`
	Body  []Segment `json:"body"`
}

// Section groups songs under a hymnal section header.
type Section struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	SongNs  []int  `json:"song_ns"`
}

// Document is the full corpus asset: { songs, sections }.
type Document struct {
	Songs    []Song    `json:"songs"`
	Sections []Section `json:"sections"`
}

const (
	segmentVerse  = "verse"
	segmentChorus = "chorus"
)

// maxTitleLen bounds titles derived from a song's first line when the names
// file has no entry for it.
const maxTitleLen = 50

var (
	songNumberedRe = regexp.MustCompile(`^\d+\.\s*\d+\.`)
	verseNumberRe  = regexp.MustCompile(`^\d+\.\s`)
	chorusLineRe   = regexp.MustCompile(`(?i)^Припев`)
	bracketsRe     = regexp.MustCompile(`[()]`)
	songStartRe    = regexp.MustCompile(`(?mi)^(\d+)\.\s*(?:\([^)]*\))?\s+(\d+\.|Припев[:.]?)\s*([^\n]+)`)
	numberedLineRe = regexp.MustCompile(`^\d+\.`)
	verseMarkerRe  = regexp.MustCompile(`^(\d+)\.\s*(.*)`)
	chorusMarkerRe = regexp.MustCompile(`(?i)^Припев(:|\.)?\s*(.*)`)
	leadNumberRe   = regexp.MustCompile(`^\d+\.\s*`)
)

// ParseNames reads the tab-separated "number<TAB>title" names file.
// Blank and malformed lines are skipped.
func ParseNames(r io.Reader) (map[int]string, error) {
	names := make(map[int]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		title := strings.TrimSpace(parts[1])
		if title != "" {
			names[number] = title
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, sberrors.New(sberrors.ErrCodeInvalidInput, "failed to read names file", err)
	}
	return names, nil
}

// Parse splits the raw hymnal text into sections and songs. names supplies
// display titles by song number; songs without an entry fall back to their
// first line.
func Parse(text string, names map[int]string) (*Document, error) {
	lines := strings.Split(text, "\n")

	headers := findSectionHeaders(lines)
	if len(headers) == 0 {
		return nil, sberrors.New(sberrors.ErrCodeInvalidInput, "no section headers found in input", nil)
	}

	doc := &Document{Songs: []Song{}, Sections: []Section{}}

	for s, header := range headers {
		start := header.index + 1
		end := len(lines)
		if s+1 < len(headers) {
			end = headers[s+1].index
		}
		sectionText := strings.TrimSpace(strings.Join(lines[start:end], "\n"))

		section := Section{ID: s, Title: header.title, SongNs: []int{}}

		for _, sm := range findSongStarts(sectionText) {
			content := strings.TrimSpace(sectionText[sm.start:sm.end])
			// Strip the song number from the first line
			content = leadNumberRe.ReplaceAllString(content, "")

			song := parseSong(content, sm.number, sm.firstLine, len(doc.Songs), names)
			doc.Songs = append(doc.Songs, song)
			section.SongNs = append(section.SongNs, sm.number)
		}

		doc.Sections = append(doc.Sections, section)
	}

	return doc, nil
}

type sectionHeader struct {
	index int
	title string
}

// findSectionHeaders detects section titles: a fully uppercase line like
// "ОБЩИЕ ПЕСНИ" that is not itself a song or verse marker, immediately
// followed by a numbered song line. Lyric lines merely start uppercase;
// their tails carry lowercase letters.
func findSectionHeaders(lines []string) []sectionHeader {
	var headers []sectionHeader
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if songNumberedRe.MatchString(line) ||
			verseNumberRe.MatchString(line) ||
			chorusLineRe.MatchString(line) ||
			bracketsRe.MatchString(line) ||
			!isSectionTitle(line) {
			continue
		}

		if i+1 < len(lines) && numberedLineRe.MatchString(strings.TrimSpace(lines[i+1])) {
			headers = append(headers, sectionHeader{index: i, title: line})
		}
	}
	return headers
}

// isSectionTitle reports whether a line contains at least one letter and no
// lowercase letters.
func isSectionTitle(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}

type songStart struct {
	number    int
	firstLine string
	start     int
	end       int
}

// findSongStarts locates songs within a section: a numbered line whose first
// body marker is verse 1 or a chorus.
func findSongStarts(sectionText string) []songStart {
	matches := songStartRe.FindAllStringSubmatchIndex(sectionText, -1)

	var starts []songStart
	for _, m := range matches {
		number, err := strconv.Atoi(sectionText[m[2]:m[3]])
		if err != nil {
			continue
		}
		marker := sectionText[m[4]:m[5]]
		if marker != "1." && marker != "1" && !chorusLineRe.MatchString(marker) {
			continue
		}
		starts = append(starts, songStart{
			number:    number,
			firstLine: sectionText[m[6]:m[7]],
			start:     m[0],
		})
	}

	for i := range starts {
		if i+1 < len(starts) {
			starts[i].end = starts[i+1].start
		} else {
			starts[i].end = len(sectionText)
		}
	}
	return starts
}

// parseSong splits one song's text into verse and chorus segments.
func parseSong(songContent string, number int, firstLine string, songID int, names map[int]string) Song {
	title, ok := names[number]
	if !ok {
		title = firstLine
		if len([]rune(title)) > maxTitleLen {
			title = string([]rune(title)[:maxTitleLen]) + "..."
		}
	}

	song := Song{ID: songID, N: number, Title: title, Body: []Segment{}}

	var current *Segment
	flush := func() {
		if current != nil {
			song.Body = append(song.Body, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(songContent, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := verseMarkerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Segment{ID: len(song.Body), Type: segmentVerse, Content: textPtr(m[2])}
			continue
		}
		if m := chorusMarkerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Segment{ID: len(song.Body), Type: segmentChorus, Content: textPtr(strings.TrimSpace(m[2]))}
			continue
		}

		// Continuation line: append to the open segment, or open an
		// implicit first verse.
		if current == nil {
			current = &Segment{ID: 0, Type: segmentVerse, Content: textPtr(line)}
			continue
		}
		if current.Content == nil {
			current.Content = textPtr(line)
		} else {
			joined := *current.Content + "\n" + line
			current.Content = &joined
		}
	}
	flush()

	return song
}

// textPtr returns nil for empty strings, matching the asset's nullable
// content field.
func textPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Check validates a parsed document the way the original pipeline did:
// song numbers must be contiguous with their positions.
func Check(doc *Document) error {
	for i, song := range doc.Songs {
		if song.N-song.ID != 1 {
			return sberrors.New(sberrors.ErrCodeInvalidInput,
				fmt.Sprintf("song %d at position %d breaks the numbering sequence", song.N, i), nil)
		}
	}
	return nil
}
