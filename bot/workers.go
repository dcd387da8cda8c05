package bot

import (
	"context"
	"time"

	"voicecreate/gateway"

	log "github.com/sirupsen/logrus"
)

// StartReconcileWorker periodically sweeps every guild with tracked channels
// so channels missed by voice events are still reclaimed. Returns a cleanup
// function to stop the worker gracefully.
func (b *Bot) StartReconcileWorker(ctx context.Context) func() {
	ticker := time.NewTicker(b.config.ReconcileInterval)
	stopChan := make(chan struct{})
	done := make(chan struct{})

	reconcile := func() {
		runCtx, cancel := context.WithTimeout(ctx, b.config.ReconcileInterval)
		defer cancel()
		b.services.Engine.Reconcile(runCtx, b.connectedGuildIDs())
	}

	go func() {
		defer close(done)
		log.WithField("interval", b.config.ReconcileInterval).Info("Reconcile worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Reconcile worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Reconcile worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				reconcile()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
		<-done
	}
}

// connectedGuildIDs lists the guilds in the session state
func (b *Bot) connectedGuildIDs() []int64 {
	b.session.State.RLock()
	defer b.session.State.RUnlock()

	ids := make([]int64, 0, len(b.session.State.Guilds))
	for _, g := range b.session.State.Guilds {
		if id, err := gateway.ParseID(g.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
