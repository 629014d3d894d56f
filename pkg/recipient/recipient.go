// Package recipient reads the recipient table that drives a bulk send.
//
// The table is CSV with a header row. Two columns are required, the
// recipient display name and email address (by default "Sponsor Name" and
// "Email"); every other column is kept and exposed to templates. Header
// matching ignores case and surrounding or repeated whitespace. A UTF-8 or
// UTF-16 byte order mark is honoured, and legacy single-byte encodings can be
// selected explicitly.
package recipient

// Template data keys for the two required columns.
const (
	KeyName  = "Name"
	KeyEmail = "Email"
)

// Recipient is one data row of the recipient table.
type Recipient struct {
	// Row is the 1-based position among data rows. It defines send order.
	Row int
	// Name is the display name, taken from the name column.
	Name string
	// Email is the address, taken from the email column. It is not validated
	// here.
	Email string
	// Fields holds every column of the row keyed by its header as written.
	Fields map[string]string
}

// Data returns the template data for this recipient: every column keyed by
// header, plus Name and Email.
func (r Recipient) Data() map[string]string {
	data := make(map[string]string, len(r.Fields)+2)
	for k, v := range r.Fields {
		data[k] = v
	}
	data[KeyName] = r.Name
	data[KeyEmail] = r.Email
	return data
}

// Columns names the header of the required columns.
type Columns struct {
	Name  string `yaml:"name" env:"MAILSHOT_NAME_COLUMN"`
	Email string `yaml:"email" env:"MAILSHOT_EMAIL_COLUMN"`
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{Name: "Sponsor Name", Email: "Email"}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Email == "" {
		c.Email = d.Email
	}
	return c
}
