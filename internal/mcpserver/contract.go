package mcpserver

// TaskSyntaxContract describes the task mini-language accepted by add_task,
// update_note on tasks, and the outline import format.
const TaskSyntaxContract = `# arbor Task Syntax

Notes form an ordered tree. Any note can be a task; a task has a status,
an optional priority and optional start and due instants.

## Status

Status cycles none -> active -> complete -> cancelled -> none (cycle_task).
In outline text a task line starts with its glyph:

- ` + "`☐ `" + ` active
- ` + "`☑ `" + ` complete
- ` + "`✗ `" + ` cancelled

## Mini-language

Task text is read in this order; a part that does not match is left in the
content untouched.

1. **Priority**: a trailing ` + "`p0`" + `..` + "`p5`" + ` tag, e.g. ` + "`call bank p1`" + `.
2. **Due**: ` + "`due <when>`" + `, up to a later ` + "`start`" + ` keyword or the end.
3. **Start**: ` + "`start <when>`" + `, up to a later ` + "`due`" + ` keyword or the end.

A date phrase that does not resolve stays in the content and is reported
as a warning.

## Date phrases

- ` + "`now`" + `, ` + "`today`" + `, ` + "`tomorrow`" + `, ` + "`yesterday`" + ` (today/tomorrow/yesterday land at 09:00)
- ` + "`in 3 days`" + `, ` + "`in 2 weeks`" + `, ` + "`in 90 minutes`" + `, ` + "`in 1 hour`" + `
- ` + "`tomorrow 5pm`" + `, ` + "`today 17:30`" + `
- ` + "`friday`" + `, ` + "`next monday 9am`" + `
- ` + "`march 3`" + `, ` + "`mar 3 2027 10:00`" + `
- ` + "`5pm`" + ` (a time already past today means tomorrow)
- ISO-8601: ` + "`2026-05-01`" + `, ` + "`2026-05-01T14:00`" + `, RFC 3339

## Outline text

One note per line. Each indent unit (4 spaces or a tab) nests one level.
A leading "- " or "* " bullet is ignored, and every line becomes one note.
Task lines are read with the mini-language above.

## Example

` + "```" + `
Trip
    ☐ book flights due friday p1
    ☐ renew passport start monday due in 3 weeks
    ☑ pick dates
    Packing
        passport
` + "```" + `
`
