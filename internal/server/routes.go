package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bidscreen/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			// unauthorized zone
			r.Route("/events", func(r chi.Router) {
				r.Post("/", handler(s.postV1Event))
				r.Get("/", handler(s.getV1Events))

				r.Route("/{eventId}", func(r chi.Router) {
					r.Get("/", handler(s.getV1Event))
					r.Delete("/", handler(s.deleteV1Event))
					r.Patch("/settings", handler(s.patchV1EventSettings))
					r.Get("/live", handler(s.getV1EventLive))

					r.Route("/items", func(r chi.Router) {
						r.Post("/", handler(s.postV1Item))

						r.Route("/{itemId}", func(r chi.Router) {
							r.Delete("/", handler(s.deleteV1Item))
							r.Put("/bid", handler(s.putV1ItemBid))
							r.Post("/reveal", handler(s.postV1ItemReveal))
							r.Put("/hidden", handler(s.putV1ItemHidden))
						})
					})
				})
			})

			r.Route("/display", func(r chi.Router) {
				r.Get("/active", handler(s.getV1DisplayActive))
			})

			r.Route("/storage", func(r chi.Router) {
				r.Get("/status", handler(s.getV1StorageStatus))
				r.Get("/queue", handler(s.getV1StorageQueue))
				r.Post("/sync", handler(s.postV1StorageSync))
				r.Delete("/queue", handler(s.deleteV1StorageQueue))
			})

			r.Route("/billing", func(r chi.Router) {
				r.Post("/webhook", handler(s.postV1BillingWebhook))
				r.Post("/verify", handler(s.postV1BillingVerify))
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
