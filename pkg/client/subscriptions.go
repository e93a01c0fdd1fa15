package client

import "context"

// SubscriptionsClient manages the caller's subscription.
type SubscriptionsClient struct {
	client *Client
}

func (s *SubscriptionsClient) Create(ctx context.Context, plan, paymentMethod string) (*Subscription, error) {
	body := map[string]string{"plan": plan}
	if paymentMethod != "" {
		body["payment_method"] = paymentMethod
	}
	var out Subscription
	if err := s.client.post(ctx, "/api/subscriptions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Active returns the caller's current subscription. A caller without one
// gets an *APIError for which IsNotFound reports true.
func (s *SubscriptionsClient) Active(ctx context.Context) (*Subscription, error) {
	var out Subscription
	if err := s.client.get(ctx, "/api/subscriptions/active", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubscriptionsClient) Cancel(ctx context.Context) (*Subscription, error) {
	var out Subscription
	if err := s.client.post(ctx, "/api/subscriptions/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubscriptionsClient) ChangePlan(ctx context.Context, plan string) (*Subscription, error) {
	var out Subscription
	if err := s.client.put(ctx, "/api/subscriptions/plan", map[string]string{"plan": plan}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
