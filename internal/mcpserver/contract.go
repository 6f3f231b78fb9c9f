package mcpserver

const fence = "```"

// NoteFormatContract describes the Markdown notes the sync writes, for
// LLM consumers reading or previewing them.
const NoteFormatContract = `# Synced Note Format

Every Granola document becomes one Markdown file at
` + "`<sync directory>/<sanitized title>.md`" + `. A later sync of a document with the
same sanitized title overwrites the file, unless "skip existing notes" is on.

## Structure

` + fence + `markdown
---
granola_id: <document id>
title: "<display title>"
granola_url: https://notes.granola.ai/d/<document id>
created_at: <as received, when present>
updated_at: <as received, when present>
<custom property>: "<value>"
<custom list property>:
  - "<token>"
---
# <sanitized title>

<structured notes rendered as Markdown>

## Full Transcript

<raw transcript, only when enabled>
` + fence + `

## Rules

1. The metadata block is always first and always delimited by ` + "`---`" + ` lines.
2. The display title may carry a prefix or suffix; ` + "`{date}`" + ` in them is replaced by the
   creation date in the configured date format.
3. The sanitized title drops ` + "`( ) [ ] { }`" + `, turns ` + "`/ \\ + * # | : \" < > ?`" + ` into ` + "`-`" + `,
   trims dots at both ends and collapses whitespace. It is both the file name and the heading.
4. Custom property values may use ` + "`{attendees}`" + `, ` + "`{participants}`" + ` or ` + "`{date}`" + `. Attendees are
   written as ` + "`[[Name]]`" + ` links. A value that contains commas becomes a YAML list.
5. The body holds headings, paragraphs and bullet lists only. Nested list items are indented
   two spaces per level.
6. Notes are UTF-8. Files are rewritten whole, never patched.
`
