// Package dataseries converts daily aggregation documents into chart-ready
// data series.
//
// Four document categories exist: record deltas, record snapshots, usage
// deltas and usage snapshots. Delta documents describe one day as
// added/removed counts; snapshot documents carry cumulative totals as of one
// day. Every category additionally breaks its metrics down per subcount
// (resource type, access status, country, ...), and documents of different
// ages expose different subsets of fields, so the transformation is built
// around "produce a point only for what a document actually contains" rather
// than a fixed schema.
//
// A Builder accumulates documents in arrival order (callers pre-sort by
// date) and finalizes into an immutable Result via Build. The wire shape is
// {subcount: {metric: [series]}} with camelCase keys.
package dataseries
