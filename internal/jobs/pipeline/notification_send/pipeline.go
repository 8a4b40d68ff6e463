package notification_send

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

// Run delivers a single pending notification. Dispatch itself skips
// anything already sent or scheduled for later, so retries are safe.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	noteID, ok := jc.PayloadUUID("notification_id")
	if !ok || noteID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing notification_id"))
		return nil
	}

	jc.Progress("deliver", 30, "Delivering notification")
	if err := p.notifs.Dispatch(dbctx.Context{Ctx: jc.Ctx}, noteID); err != nil {
		jc.Fail("deliver", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"notification_id": noteID.String(),
	})
	return nil
}
