package extract

import "github.com/santhosh-tekuri/jsonschema/v5"

// replySchema validates the minimum shape the pipeline depends on: a JSON
// object whose "orden" member is an array. Everything else is coerced
// leniently afterwards so that partially malformed line items degrade to
// defaults instead of failing the whole order.
const replySchema = `{
  "type": "object",
  "required": ["orden"],
  "properties": {
    "orden": {
      "type": "array",
      "items": {"type": "object"}
    },
    "confianza": {"type": "string"},
    "duda_posible": {"type": ["string", "null"]}
  }
}`

var compiledReplySchema = jsonschema.MustCompileString("reply.schema.json", replySchema)
