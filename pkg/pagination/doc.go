// Package pagination provides pluggable strategies for iterating paginated
// REST endpoints.
//
// A Paginator inspects the decoded payload of the most recent page and
// either terminates the sequence or produces PageData describing how to
// reach the next page. Two strategies ship with the package:
//
//   - QueryPage: the next page is encoded in query parameters. Keys that
//     collide with the base request's query are overwritten by the
//     pagination value (last write wins).
//   - PathPage: the next page is encoded in path segments, addressed by
//     segment index.
//
// Sequences are driven by Fetch (collect all pages) or Stream (consume
// pages as they arrive). Within one sequence pages are fetched strictly in
// order; independent sequences may run concurrently against the same
// client, each owning its page state.
//
// Example usage:
//
//	pag := pagination.NewQueryPaginator(func(prev pagination.QueryPage, r *ListResponse) pagination.QueryPage {
//		if r.NextPage == nil {
//			return nil
//		}
//		return pagination.QueryPage{"page": strconv.Itoa(*r.NextPage)}
//	})
//	pages, err := pagination.Fetch[ListResponse](ctx, client, req)
//
// For page-numbered endpoints that reveal their total page count up front,
// FetchAllPages fetches the remaining pages through a worker pool instead
// of sequentially.
package pagination
