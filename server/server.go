package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"campusnet/graph"
	monitoringmw "campusnet/monitoring/middleware"
	"campusnet/notifications"
	"campusnet/realtime"
	"campusnet/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	store       *storage.Manager
	coordinator *graph.Coordinator
	sink        *notifications.Sink
	registry    *realtime.Registry
	hub         *realtime.Hub
	jwtSecret   []byte
}

func NewServer(
	store *storage.Manager,
	coordinator *graph.Coordinator,
	sink *notifications.Sink,
	registry *realtime.Registry,
	hub *realtime.Hub,
	jwtSecret string,
) *Server {
	return &Server{
		store:       store,
		coordinator: coordinator,
		sink:        sink,
		registry:    registry,
		hub:         hub,
		jwtSecret:   []byte(jwtSecret),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/user/register", s.register)
		r.Post("/user/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/user/me", s.getMe)
			r.Get("/user/search", s.searchUsers)
			r.Get("/user/suggested", s.suggestedUsers)
			r.Post("/user/privacy", s.updatePrivacy)
			r.Get("/user/{id}/stats", s.userStatistics)
			r.Post("/user/followorunfollow/{id}", s.followOrUnfollow)
			r.Get("/user/followrequests", s.listFollowRequests)
			r.Post("/user/followrequests/{requestId}/accept", s.acceptFollowRequest)
			r.Post("/user/followrequests/{requestId}/reject", s.rejectFollowRequest)

			r.Get("/notification/all", s.listNotifications)
			r.Delete("/notification/clear", s.clearNotifications)

			r.Post("/post/add", s.addPost)
			r.Get("/post/{id}", s.getPost)
			r.Post("/post/{id}/like", s.likePost)
			r.Post("/post/{id}/dislike", s.dislikePost)
			r.Post("/post/{id}/comment", s.addComment)

			r.Post("/message/send/{id}", s.sendMessage)
			r.Get("/message/all/{id}", s.listMessages)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/ws", s.serveWebsocket)
	})

	return monitoringmw.NewServerMiddleware(r)
}

func (s *Server) Run(addr string) {
	log.Infof("Listening on %s", addr)
	err := http.ListenAndServe(addr, s.Router())
	if errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("server closed\n")
	} else if err != nil {
		fmt.Printf("error starting server: %s\n", err)
		os.Exit(1)
	}
}
