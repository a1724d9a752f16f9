package store

// canonicalOrder lists the protestant canon. Books missing from it sort last.
var canonicalOrder = []string{
	// Old Testament
	"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
	"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel",
	"1 Kings", "2 Kings", "1 Chronicles", "2 Chronicles", "Ezra",
	"Nehemiah", "Esther", "Job", "Psalms", "Proverbs",
	"Ecclesiastes", "Song of Solomon", "Isaiah", "Jeremiah", "Lamentations",
	"Ezekiel", "Daniel", "Hosea", "Joel", "Amos",
	"Obadiah", "Jonah", "Micah", "Nahum", "Habakkuk",
	"Zephaniah", "Haggai", "Zechariah", "Malachi",
	// New Testament
	"Matthew", "Mark", "Luke", "John", "Acts",
	"Romans", "1 Corinthians", "2 Corinthians", "Galatians", "Ephesians",
	"Philippians", "Colossians", "1 Thessalonians", "2 Thessalonians", "1 Timothy",
	"2 Timothy", "Titus", "Philemon", "Hebrews", "James",
	"1 Peter", "2 Peter", "1 John", "2 John", "3 John",
	"Jude", "Revelation",
}

const oldTestamentBooks = 39

var canonIndex = func() map[string]int {
	m := make(map[string]int, len(canonicalOrder))
	for i, name := range canonicalOrder {
		m[name] = i + 1
	}
	return m
}()

// CanonBook is a book of the canon with its position.
type CanonBook struct {
	Name           string
	CanonicalOrder int
	Testament      string
}

func canonBook(name string) CanonBook {
	order, ok := canonIndex[name]
	if !ok {
		order = len(canonicalOrder) + 1
	}

	testament := "New"
	if order <= oldTestamentBooks {
		testament = "Old"
	}

	return CanonBook{
		Name:           name,
		CanonicalOrder: order,
		Testament:      testament,
	}
}
