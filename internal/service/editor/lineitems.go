package editor

import (
	"context"
	"fmt"

	"github.com/jmehdipour/rate-table-editor/internal/events"
	"github.com/jmehdipour/rate-table-editor/internal/lineitem"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/session"
	"go.uber.org/zap"
)

// Entitle grants a new DEPLOYED line item to a customer instance.
func (s *Service) Entitle(ctx context.Context, sess *session.Session, instanceID string, req lineitem.EntitlementRequest) (model.LineItem, error) {
	item, err := lineitem.NewEntitlement(req, s.dates)
	if err != nil {
		return model.LineItem{}, err
	}

	if err := s.api(sess).UpsertLineItem(ctx, instanceID, item); err != nil {
		return model.LineItem{}, fmt.Errorf("entitle %d tokens to %s: %w", item.Quantity, instanceID, err)
	}

	s.log.Info("tokens entitled",
		zap.String("env", sess.Env.String()),
		zap.String("instance_id", instanceID),
		zap.String("activation_id", item.ActivationID),
		zap.Int64("quantity", item.Quantity),
	)
	s.publish(ctx, sess, events.LineItemUpserted, lineItemPayload(instanceID, item))

	return item, nil
}

// LineItems lists a customer's line items as display rows ordered by start date.
func (s *Service) LineItems(ctx context.Context, sess *session.Session, instanceID string) ([]lineitem.Row, error) {
	items, err := s.api(sess).ListLineItems(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list line items of %s: %w", instanceID, err)
	}
	return lineitem.Rows(items, s.dates), nil
}

func (s *Service) lineItem(ctx context.Context, sess *session.Session, instanceID, activationID string) (model.LineItem, error) {
	items, err := s.api(sess).ListLineItems(ctx, instanceID)
	if err != nil {
		return model.LineItem{}, fmt.Errorf("list line items of %s: %w", instanceID, err)
	}

	item, ok := lineitem.Find(items, activationID)
	if !ok {
		return model.LineItem{}, fmt.Errorf("line item %s: %w", activationID, ErrNotFound)
	}
	return item, nil
}

// PreviewEdit returns the current line item and the result of applying e,
// without sending anything. Callers use it to ask for confirmation of
// destructive transitions.
func (s *Service) PreviewEdit(ctx context.Context, sess *session.Session, instanceID, activationID string, e lineitem.Edit) (current, next model.LineItem, err error) {
	current, err = s.lineItem(ctx, sess, instanceID, activationID)
	if err != nil {
		return model.LineItem{}, model.LineItem{}, err
	}

	next, err = lineitem.Apply(current, e, s.dates)
	if err != nil {
		return current, current, err
	}
	return current, next, nil
}

// EditLineItem validates e against the stored line item and upserts the result.
func (s *Service) EditLineItem(ctx context.Context, sess *session.Session, instanceID, activationID string, e lineitem.Edit) (model.LineItem, error) {
	_, next, err := s.PreviewEdit(ctx, sess, instanceID, activationID, e)
	if err != nil {
		return model.LineItem{}, err
	}

	if err := s.api(sess).UpsertLineItem(ctx, instanceID, next); err != nil {
		return model.LineItem{}, fmt.Errorf("update line item %s: %w", activationID, err)
	}

	s.log.Info("line item updated",
		zap.String("env", sess.Env.String()),
		zap.String("instance_id", instanceID),
		zap.String("activation_id", activationID),
		zap.String("state", next.State.String()),
	)
	s.publish(ctx, sess, events.LineItemUpserted, lineItemPayload(instanceID, next))

	return next, nil
}

// DeleteLineItem removes a line item. Only OBSOLETE line items may be deleted.
func (s *Service) DeleteLineItem(ctx context.Context, sess *session.Session, instanceID, activationID string) error {
	item, err := s.lineItem(ctx, sess, instanceID, activationID)
	if err != nil {
		return err
	}

	if err := lineitem.CanDelete(item); err != nil {
		return err
	}

	if err := s.api(sess).DeleteLineItem(ctx, instanceID, activationID); err != nil {
		return fmt.Errorf("delete line item %s: %w", activationID, err)
	}

	s.log.Info("line item deleted",
		zap.String("env", sess.Env.String()),
		zap.String("instance_id", instanceID),
		zap.String("activation_id", activationID),
	)
	s.publish(ctx, sess, events.LineItemDeleted, lineItemPayload(instanceID, item))

	return nil
}

func lineItemPayload(instanceID string, item model.LineItem) map[string]any {
	return map[string]any{"instanceId": instanceID, "lineItem": item}
}
