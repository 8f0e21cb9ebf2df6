package service

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/moaaz-s/7awel-auth-core/internal/devicestate"
	"github.com/moaaz-s/7awel-auth-core/internal/flow/domain"
	userdomain "github.com/moaaz-s/7awel-auth-core/internal/user/domain"
)

// BuildFlowState reconciles a flow state snapshot against the device store:
// merge current ← updates (later wins), then overwrite the computed truths
// (session activity, token existence and validity, PIN presence) from a fresh
// parallel fetch. The three fetches are load-bearing for routing; any failure
// propagates and the caller must treat it as fatal to the flow operation. The
// optional profile fetch degrades: a failure is logged and the field stays
// unset.
func (s *Service) BuildFlowState(ctx context.Context, current domain.FlowState, updates *domain.Delta) (domain.FlowState, error) {
	merged := current
	if updates != nil {
		merged = updates.Apply(merged)
	}

	var (
		sess          *devicestate.Session
		tok           *devicestate.TokenRecord
		pinConfigured bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sess, err = s.device.Session(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tok, err = s.device.Token(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pinConfigured, err = s.pins.Configured(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.FlowState{}, err
	}

	now := s.nowF()
	merged.SessionActive = sess != nil && sess.Active && sess.ExpiresAt.After(now)
	status := tok.Status(now)
	merged.TokenExists = status.Exists
	merged.TokenValid = status.Exists && !status.Expired
	// OR, not overwrite: a PIN set earlier in this run stays set even if the
	// configured read raced a concurrent clear.
	merged.PinSet = merged.PinSet || pinConfigured

	if merged.TokenValid && merged.User == nil {
		u, err := s.fetchProfile(ctx, merged, sess)
		if err != nil {
			log.Printf("flow: profile fetch during state build failed: %v", err)
		} else if u != nil {
			merged.User = u
		}
	}

	if merged.WalletAddress != "" || merged.User.HasWallet() {
		merged.WalletCreated = true
		if merged.WalletAddress == "" {
			merged.WalletAddress = merged.User.WalletAddress
		}
	}
	return merged, nil
}

// fetchProfile resolves the current user, preferring the session binding over
// contact lookup.
func (s *Service) fetchProfile(ctx context.Context, st domain.FlowState, sess *devicestate.Session) (*userdomain.User, error) {
	if sess != nil && sess.UserID != "" {
		return s.profiles.Get(ctx, sess.UserID)
	}
	if st.Phone != "" || st.Email != "" {
		return s.profiles.GetByContact(ctx, st.Phone, st.Email)
	}
	return nil, nil
}
