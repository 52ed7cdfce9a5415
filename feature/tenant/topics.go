package tenant

import (
	"context"
	"errors"
	"fmt"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/core/graphql"
	"tenant-bootstrapper/core/reconcile"
	"tenant-bootstrapper/feature/spec"
)

// SyncTopics creates the topic maps level by level. A topic exists when a
// topic with the same name in language has the same parent.
func (s *Service) SyncTopics(ctx context.Context, desired []spec.Topic, language string) error {
	res, err := s.call(ctx, graphql.GetTopics(s.tenantID, language))
	if err != nil {
		return fmt.Errorf("failed to fetch topics: %w", err)
	}
	var all []Topic
	if err := res.Decode("$.topic.getMany", &all); err != nil {
		return err
	}

	children := make(map[string][]Topic)
	for _, t := range all {
		children[t.ParentID] = append(children[t.ParentID], t)
	}

	adapter := reconcile.Funcs[spec.Topic, Topic]{
		Kind:     AreaTopics,
		Desired:  func(t spec.Topic) string { return t.Name.Get(language) },
		Existing: func(t Topic) string { return t.Name },
	}

	var (
		errs  []error
		done  int
		total = countTopics(desired)
	)
	var walk func(parentID string, level []spec.Topic)
	walk = func(parentID string, level []spec.Topic) {
		plan := reconcile.BuildPlan[spec.Topic, Topic](adapter, level, children[parentID])
		_, err := reconcile.ApplyPlan(ctx, plan, reconcile.CreateFunc[spec.Topic, Topic](
			func(ctx context.Context, t spec.Topic) (Topic, error) {
				res, err := s.call(ctx, graphql.CreateTopic(s.tenantID, language, t.Name.Get(language), parentID))
				if err != nil {
					return Topic{}, err
				}
				var created Topic
				if err := res.Decode("$.topic.create", &created); err != nil {
					return Topic{}, err
				}
				all = append(all, created)
				return created, nil
			}), nil)
		if err != nil {
			errs = append(errs, err)
		}

		for _, d := range level {
			done++
			s.sink.Emit(events.Event{Type: events.TypeProgress, Area: AreaTopics, Progress: float64(done) / float64(total)})

			t, ok := plan.Existing[d.Name.Get(language)]
			if !ok {
				done += countTopics(d.Children)
				continue
			}
			walk(t.ID, d.Children)
		}
	}
	walk("", desired)

	s.catalog.Topics[language] = all
	return errors.Join(errs...)
}

func countTopics(topics []spec.Topic) int {
	n := len(topics)
	for _, t := range topics {
		n += countTopics(t.Children)
	}
	return n
}
