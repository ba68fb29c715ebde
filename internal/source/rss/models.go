package rss

// FormatHint classifies a feed for time-field prioritisation.
type FormatHint int

const (
	FormatUnknown FormatHint = iota
	FormatRSS
	FormatAtom
)

func (h FormatHint) String() string {
	switch h {
	case FormatRSS:
		return "RSS"
	case FormatAtom:
		return "Atom"
	default:
		return "Unknown"
	}
}

// TimeField names an entry time field as feed parsers expose it.
type TimeField string

const (
	FieldPubDate   TimeField = "pubDate"
	FieldPublished TimeField = "published"
	FieldUpdated   TimeField = "updated"
	FieldCreated   TimeField = "created"
	FieldModified  TimeField = "modified"
)

// TimeTuple is a pre-parsed time in struct_time order:
// year, month, day, hour, minute, second, then optional extra components.
type TimeTuple []int

// Entry is one item of a parsed feed.
type Entry struct {
	Title string
	Link  string
	Times map[TimeField]TimeTuple
	Raw   map[TimeField]string
}

// ParsedFeed is the structured result of the parse capability.
type ParsedFeed struct {
	Version string
	Title   string
	Entries []Entry
}
