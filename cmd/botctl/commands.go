package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mini-botapi/client"
	"mini-botapi/message"
	"mini-botapi/methods"
)

type command struct {
	minArgs int
	run     func(ctx context.Context, c *client.Client, args []string) error
}

var commands = map[string]command{
	"getme":   {0, getMe},
	"send":    {2, sendText},
	"photo":   {2, sendPhoto},
	"file":    {2, downloadFile},
	"updates": {0, getUpdates},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getMe(ctx context.Context, c *client.Client, _ []string) error {
	me, err := client.Send(ctx, c, methods.GetMe{})
	if err != nil {
		return err
	}
	return printJSON(me)
}

func sendText(ctx context.Context, c *client.Client, args []string) error {
	chat, err := methods.ParseChatID(args[0])
	if err != nil {
		return err
	}
	msg, err := client.Send(ctx, c, methods.SendMessage{ChatID: chat, Text: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("sent message %d to %s\n", msg.MessageID, chat)
	return nil
}

func sendPhoto(ctx context.Context, c *client.Client, args []string) error {
	chat, err := methods.ParseChatID(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()
	photo, err := message.FileUploadReader(filepath.Base(args[1]), f)
	if err != nil {
		return err
	}

	msg, err := client.Send(ctx, c, methods.SendPhoto{ChatID: chat, Photo: photo})
	if err != nil {
		return err
	}
	fmt.Printf("sent photo as message %d\n", msg.MessageID)
	return nil
}

func downloadFile(ctx context.Context, c *client.Client, args []string) error {
	file, err := client.Send(ctx, c, methods.GetFile{FileID: args[0]})
	if err != nil {
		return err
	}
	data, err := c.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[1], err)
	}
	fmt.Printf("saved %d bytes to %s\n", len(data), args[1])
	return nil
}

func getUpdates(ctx context.Context, c *client.Client, args []string) error {
	req := methods.GetUpdates{}
	if len(args) > 0 {
		offset, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("offset: %w", err)
		}
		req.Offset = offset
	}
	updates, err := client.Send(ctx, c, req)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.Message != nil {
			if cmd, ok := u.Message.Command(); ok {
				fmt.Printf("update %d: command %s %q\n", u.UpdateID, cmd.Name, cmd.Args)
				continue
			}
		}
		if err := printJSON(u); err != nil {
			return err
		}
	}
	return nil
}
