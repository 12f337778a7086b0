package pipeline

import "context"

// Process runs fn over items strictly in order, one at a time. A failing
// item does not stop the loop; its error is handed to collect together with
// the 1-based count of attempts so far. Process only returns early when ctx
// is done, reporting how many items were attempted.
func Process[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), collect func(attempted int, item T, result R, err error)) (int, error) {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		result, err := fn(ctx, item)
		collect(i+1, item, result, err)
	}
	return len(items), nil
}
