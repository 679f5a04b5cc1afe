// Package interest persists marketing-preference and topic-of-interest flags
// to account metadata and derives area-of-interest flags from the static
// TOI→AOI matrix.
package interest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ignite/workbooks-sync/internal/account"
	"github.com/ignite/workbooks-sync/internal/fields"
	"github.com/ignite/workbooks-sync/internal/pkg/logger"
)

// Apply stores the submission's preference and interest flags on the account,
// then derives AOI flags. Rules:
//
//   - every stored value is exactly "0" or "1"
//   - an omitted checkbox never clears a previously stored flag
//   - derivation only ever sets flags to 1, and never touches an AOI the
//     user has set explicitly (in this submission or any earlier one)
func Apply(ctx context.Context, store account.Store, accountID string, sub fields.FormSubmission) error {
	// Snapshot existing metadata before any writes; explicit-choice detection
	// must see the pre-derivation state.
	existing, err := store.GetAllMeta(ctx, accountID)
	if err != nil {
		return fmt.Errorf("read existing metadata: %w", err)
	}

	writeFlags := func(flags map[string]int) error {
		for key, v := range flags {
			if err := store.SetMeta(ctx, accountID, key, strconv.Itoa(v)); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
		return nil
	}

	if err := writeFlags(sub.Marketing); err != nil {
		return err
	}
	if err := writeFlags(sub.Areas); err != nil {
		return err
	}
	if err := writeFlags(sub.Topics); err != nil {
		return err
	}

	// Derive AOI flags from selected topics. An AOI counts as explicit if it
	// was stored before this submission or submitted in it.
	for topicKey, v := range sub.Topics {
		if v != 1 {
			continue
		}
		for _, areaKey := range DerivedAreas(topicKey) {
			if _, ok := sub.Areas[areaKey]; ok {
				continue
			}
			if _, ok := existing[areaKey]; ok {
				continue
			}
			if err := store.SetMeta(ctx, accountID, areaKey, "1"); err != nil {
				return fmt.Errorf("derive %s: %w", areaKey, err)
			}
			logger.Debug("derived area of interest", "account_id", accountID, "topic", topicKey, "area", areaKey)
		}
	}

	return nil
}
