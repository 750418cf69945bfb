/*
Package teehistorian implements a codec for teehistorian recordings, the
append-only session logs written by DDNet game servers.

Data Structure Documentation

Stream

A stream contains a header frame followed by a series of chunks,
usually terminated by an end-of-stream chunk.

    Stream layout:
    +--------------+-------------+------------+---------+---------+---------+-----+
    | magic (16 B) | header JSON | NUL (1 B)  | chunk 1 |   ...   | chunk n | eos |
    +--------------+-------------+------------+---------+---------+---------+-----+

The magic is the UUID 699db17b-8efb-34ff-b1d8-da6f60c15dd1. The header
is a JSON object of string values; nested objects are kept as raw JSON.

Integers

All integers are packed, sign-folded varints. The first byte holds an
extend bit, a sign bit and 6 data bits, each following byte an extend
bit and 7 data bits. An int32 takes at most 5 bytes.

    First byte:                    Following bytes:
    +--------+------+-----------+  +--------+-----------+
    | extend | sign | data (6)  |  | extend | data (7)  |
    +--------+------+-----------+  +--------+-----------+

Strings are NUL-terminated; byte strings carry a packed length prefix.

Chunk

A chunk starts with a packed tag. Non-negative tags are position deltas
for the client with that ID, negative tags select a fixed record kind.

    Chunk layout:
    +--------------+-------------------------+
    | tag (varint) | payload (kind-specific) |
    +--------------+-------------------------+

    Extension chunk (tag -11):
    +-------------+----------------------+------------------+
    | uuid (16 B) | payload len (varint) | payload (varlen) |
    +-------------+----------------------+------------------+

Extension UUIDs are derived with CalculateUUID. Registered UUIDs decode to
CustomChunk, well-known ones to their own kinds and all others to Unknown.
Well-known extensions with a broken payload decode to Generic. All three
re-encode to the original bytes.
*/
package teehistorian
