package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vogiaan1904/thequeue/internal/models"
	pkgGrpc "github.com/vogiaan1904/thequeue/pkg/grpc"
	"github.com/vogiaan1904/thequeue/pkg/util"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	baseURL    = flag.String("http", "http://localhost:8000", "HTTP base URL of the queue service")
	grpcAddr   = flag.String("grpc", "", "gRPC address; when set, events are streamed and the final listing is fetched over gRPC")
	numSongs   = flag.Int("songs", 50, "Number of song requests to submit")
	numWorkers = flag.Int("workers", 8, "Number of concurrent DJ clients reordering the queue")
	numMoves   = flag.Int("moves", 200, "Total number of repositions across all workers")
	maxJump    = flag.Int("max-jump", 0, "Largest target position to request (0 means songs+5, which exercises clamping)")
	adminToken = flag.String("admin-token", os.Getenv("ADMIN_TOKEN"), "Admin token used to end the session once the run completes")
)

type createSessionResponse struct {
	Session *models.Session `json:"session"`
	DJToken string          `json:"dj_token"`
}

type client struct {
	http  *http.Client
	token string
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, *baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s %s: %d %s", method, path, res.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	c := &client{http: &http.Client{Timeout: 10 * time.Second}}

	var ss createSessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", map[string]string{
		"name": fmt.Sprintf("simulation %s", time.Now().Format(time.Kitchen)),
	}, &ss); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	c.token = ss.DJToken
	sessionID := ss.Session.ID
	fmt.Printf("Session %s (slug %s)\n", sessionID, ss.Session.Slug)

	var events atomic.Int64
	streamDone := make(chan error, 1)
	if *grpcAddr != "" {
		go func() { streamDone <- streamEvents(ctx, sessionID, &events) }()
	}

	start := time.Now()
	ids := make([]string, *numSongs)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(*numWorkers)
	for i := range *numSongs {
		g.Go(func() error {
			var req models.Request
			if err := c.do(gCtx, http.MethodPost, "/sessions/"+sessionID+"/requests", map[string]any{
				"song_title": fmt.Sprintf("Song %03d", i+1),
				"guest_name": fmt.Sprintf("guest-%d", i%7),
			}, &req); err != nil {
				return err
			}
			ids[i] = req.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submit songs: %w", err)
	}
	fmt.Printf("Submitted %d songs in %s\n", *numSongs, time.Since(start).Round(time.Millisecond))

	jump := *maxJump
	if jump <= 0 {
		jump = *numSongs + 5
	}

	start = time.Now()
	var moves atomic.Int64
	g, gCtx = errgroup.WithContext(ctx)
	for w := range *numWorkers {
		share := *numMoves / *numWorkers
		if w < *numMoves%*numWorkers {
			share++
		}
		g.Go(func() error {
			for range share {
				id := ids[rand.IntN(len(ids))]
				target := rand.IntN(jump+2) - 1
				if err := c.do(gCtx, http.MethodPatch, "/requests/"+id+"/position",
					map[string]int{"position": target}, nil); err != nil {
					return err
				}
				moves.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reposition: %w", err)
	}
	elapsed := time.Since(start)
	fmt.Printf("Applied %d repositions in %s (%.0f/s)\n",
		moves.Load(), elapsed.Round(time.Millisecond), float64(moves.Load())/elapsed.Seconds())

	positions, err := listPositions(ctx, c, sessionID)
	if err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	if err := checkDense(positions, *numSongs); err != nil {
		return err
	}
	fmt.Printf("Queue is dense: positions 1..%d, no duplicates\n", *numSongs)

	if *grpcAddr != "" {
		admin := &client{http: c.http, token: *adminToken}
		if err := admin.do(ctx, http.MethodDelete, "/admin/sessions/"+sessionID, nil, nil); err != nil {
			fmt.Printf("Could not end session, stream left open: %v\n", err)
			return nil
		}
		if err := <-streamDone; err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		fmt.Printf("Streamed %d events\n", events.Load())
	}
	return nil
}

func listPositions(ctx context.Context, c *client, sessionID string) ([]int, error) {
	if *grpcAddr == "" {
		var reqs []models.Request
		if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/requests", nil, &reqs); err != nil {
			return nil, err
		}
		positions := make([]int, 0, len(reqs))
		for _, r := range reqs {
			positions = append(positions, r.Position)
		}
		return positions, nil
	}

	qc, closeConn, err := pkgGrpc.NewQueueClient(*grpcAddr)
	if err != nil {
		return nil, err
	}
	defer closeConn()

	in, err := structpb.NewStruct(map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	out, err := qc.ListRequests(ctx, in)
	if err != nil {
		return nil, err
	}

	fields := out.GetFields()
	if at, err := util.ParseISO8601(fields["fetched_at"].GetStringValue()); err == nil {
		fmt.Printf("Listing fetched over gRPC at %s\n", at.Local().Format(time.TimeOnly))
	}

	var positions []int
	for _, v := range fields["requests"].GetListValue().GetValues() {
		positions = append(positions, int(v.GetStructValue().GetFields()["position"].GetNumberValue()))
	}
	return positions, nil
}

func checkDense(positions []int, want int) error {
	if len(positions) != want {
		return fmt.Errorf("got %d requests, want %d", len(positions), want)
	}
	for i, p := range positions {
		if p != i+1 {
			return fmt.Errorf("position at index %d is %d, want %d", i, p, i+1)
		}
	}
	return nil
}

func streamEvents(ctx context.Context, sessionID string, count *atomic.Int64) error {
	qc, closeConn, err := pkgGrpc.NewQueueClient(*grpcAddr)
	if err != nil {
		return err
	}
	defer closeConn()

	in, err := structpb.NewStruct(map[string]any{"session_id": sessionID})
	if err != nil {
		return err
	}
	stream, err := qc.StreamSession(ctx, in)
	if err != nil {
		return err
	}

	var last float64
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		count.Add(1)

		seq := msg.GetFields()["sequence"].GetNumberValue()
		if seq <= last {
			return fmt.Errorf("sequence went from %.0f to %.0f", last, seq)
		}
		last = seq
	}
}
