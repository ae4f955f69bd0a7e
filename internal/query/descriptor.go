package query

// Kind discriminates the query descriptor union.
type Kind int

const (
	// Directory lists the immediate files of a directory.
	Directory Kind = iota
	// TagQuery evaluates a tmsu tag expression.
	TagQuery
	// AllTagged is the union of every tagged file in the store.
	AllTagged
	// Untagged lists store-known files without tags.
	Untagged
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case TagQuery:
		return "tag-query"
	case AllTagged:
		return "all-tagged"
	case Untagged:
		return "untagged"
	default:
		return "unknown"
	}
}

// Descriptor names a file set to resolve. It is a value type compared by
// content: Dir is set only for Directory, Expr only for TagQuery.
type Descriptor struct {
	Kind Kind
	Dir  string
	Expr string
}

// DirectoryOf returns a Directory descriptor for path.
func DirectoryOf(path string) Descriptor { return Descriptor{Kind: Directory, Dir: path} }

// TagQueryOf returns a TagQuery descriptor for a tmsu expression.
func TagQueryOf(expr string) Descriptor { return Descriptor{Kind: TagQuery, Expr: expr} }
