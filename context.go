package val

import "fmt"

// RecordContext identifies the raw record currently being formatted. It is
// threaded through calls as a value, never stored in shared state, so one
// record's context can't leak into the next record's warnings.
type RecordContext struct {
	Source   string
	Id       string
	Name     string
	Provider string
}

func (ctx RecordContext) String() string {
	return fmt.Sprintf("id=%s name=%q provider=%s", ctx.Id, ctx.Name, ctx.Provider)
}

// warn reports a data oddity on the current record. Informational only; it
// must never affect control flow or output.
func warn(message string, ctx RecordContext) {
	Log.Warnf("%s: %s (%v)", ctx.Source, message, ctx)
}
