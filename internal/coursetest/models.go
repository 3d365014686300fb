package coursetest

// TestResult is the outcome recorded on a TestAttempt.
type TestResult string

const (
	ResultCorrect TestResult = "CORRECT"
	ResultWrong   TestResult = "WRONG"
)

type Part struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id,omitempty"`
	Title    string `json:"title"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Alternative struct {
	Key  string `json:"key"`
	Text string `json:"text,omitempty"`
}

// Test is a single question inside a Part. SequenceNumber is its 1-based
// position; the numbers of a Part with N tests are exactly 1..N.
type Test struct {
	ID                 string        `json:"id"`
	PartID             string        `json:"part_id"`
	Title              string        `json:"title"`
	Question           string        `json:"question,omitempty"`
	Alternatives       []Alternative `json:"alternatives,omitempty"`
	CorrectAlternative string        `json:"correct_alternative,omitempty"`
	SequenceNumber     int           `json:"sequence_number"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

type NewTest struct {
	PartID             string        `json:"part_id"`
	Title              string        `json:"title"`
	Question           string        `json:"question,omitempty"`
	Alternatives       []Alternative `json:"alternatives,omitempty"`
	CorrectAlternative string        `json:"correct_alternative"`
}

// TestUpdate carries the fields to merge into an existing Test; nil fields
// are left untouched.
type TestUpdate struct {
	PartID             *string       `json:"part_id,omitempty"`
	Title              *string       `json:"title,omitempty"`
	Question           *string       `json:"question,omitempty"`
	Alternatives       []Alternative `json:"alternatives,omitempty"`
	CorrectAlternative *string       `json:"correct_alternative,omitempty"`
}

// TestAttempt is keyed by (UserID, TestID, TestNumber). TestNumber counts the
// attempts of one user on one test, starting at 1.
type TestAttempt struct {
	UserID     string     `json:"user_id"`
	TestID     string     `json:"test_id"`
	TestNumber int        `json:"test_number"`
	TestResult TestResult `json:"test_result"`
	CreatedAt  int64      `json:"created_at,omitempty"`
}
