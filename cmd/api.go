package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/services"
	"github.com/desertthunder/stagelog/internal/shared"
)

// APIGet sends an authenticated GET and prints the response.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	resp, err := r.client.API.Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeAPIResponse(resp, !cmd.Bool("json"))
}

// APIPost sends an authenticated POST with --data as the JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	data := cmd.String("data")
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: --data is not valid JSON", shared.ErrInvalidFlag)
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	resp, err := r.client.API.Post(ctx, path, []byte(data))
	if err != nil {
		return err
	}
	return r.writeAPIResponse(resp, true)
}

func (r *Runner) writeAPIResponse(resp *services.APIResponse, pretty bool) error {
	r.logger.Debug("api response", "status", resp.StatusCode, "content_type", resp.Headers.Get("Content-Type"))
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		r.writePlain("HTTP %d (empty body)\n", resp.StatusCode)
		return nil
	}
	r.writePlain("%s\n", resp.Body)
	return nil
}
