package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ChatJet/internal/client"
	"github.com/dkeye/ChatJet/internal/config"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(config.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := client.OpenBadgerStore(cfg.StorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open session store")
	}
	defer store.Close()

	var view *client.View
	session, err := client.NewSession(store, client.SessionOptions{
		Timeout:      cfg.SessionTimeout,
		Debounce:     cfg.ActivityDebounce,
		HistoryLimit: cfg.HistoryLimit,
		OnWipe: func() {
			if view != nil {
				view.Reset()
			}
			notice("Session expired after inactivity. Pick a name with /public <name>.")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("load session")
	}

	conn, err := client.Dial(ctx, cfg.ServerURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer conn.Close()

	view = client.NewView(session, conn.Send, nil)
	typing := client.NewTypingIndicator(cfg.TypingTimeout, func(event string) { _ = conn.Send(event, nil) })
	go client.NewInactivityWatcher(session, cfg.CheckInterval).Run(ctx)

	go func() {
		err := conn.ReadLoop(ctx, func(env protocol.Envelope) {
			if view.Apply(env) == nil {
				render(view, env)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("connection lost")
		}
		cancel()
	}()

	if plan, ok := session.RejoinPlan(); ok && plan.Auto {
		view.ExpectName(plan.Name)
		_ = conn.Send(protocol.JoinPublic, protocol.JoinPublicPayload{Name: plan.Name})
	} else if plan.Name != "" {
		notice(fmt.Sprintf("Welcome back %s. Rejoin %q with /join <room> <password> <name>.", plan.Name, plan.RoomID))
	} else {
		notice("Type /help for commands. Start with /public <name>.")
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line := <-lines:
			session.Touch()
			if line == "" {
				continue
			}
			handle(client.ParseInput(line, rand.IntN), conn, view, session, typing)
		}
	}
}

func handle(a client.Action, conn *client.Conn, view *client.View, session *client.Session, typing *client.TypingIndicator) {
	var err error
	switch a.Kind {
	case client.ActionSend:
		// A line-buffered terminal only hands over whole lines, so peers see a
		// short typing burst per message instead of live keystrokes.
		typing.Keystroke()
		err = conn.Send(protocol.ChatMessage, protocol.ChatMessagePayload{Text: a.Text})
		typing.Stop()
	case client.ActionPoll:
		err = conn.Send(protocol.CreatePoll, protocol.CreatePollPayload{Question: a.Question, Options: a.Options, RoomID: view.RoomID()})
	case client.ActionClear:
		view.ClearLocal()
		notice("Chat cleared locally.")
	case client.ActionNotice:
		notice(a.Text)
	case client.ActionUsers:
		printUsers(view.Users())
	case client.ActionJoinPublic:
		view.ExpectName(a.Name)
		err = conn.Send(protocol.JoinPublic, protocol.JoinPublicPayload{Name: a.Name})
	case client.ActionJoin:
		view.ExpectName(a.Name)
		err = conn.Send(protocol.JoinRoom, protocol.JoinRoomPayload{Name: a.Name, RoomID: a.RoomID, Secret: a.Secret})
	case client.ActionCreate:
		view.ExpectName(a.Name)
		err = conn.Send(protocol.CreateRoom, protocol.CreateRoomPayload{Name: a.Name, RoomID: a.RoomID, Secret: a.Secret})
	case client.ActionLeave:
		session.Left()
		err = conn.Send(protocol.LeaveRoom, nil)
	case client.ActionInvite:
		err = conn.Send(protocol.SendDMRequest, protocol.DMRequestPayload{TargetID: a.Target})
	case client.ActionAccept:
		err = conn.Send(protocol.DMAccepted, protocol.DMAcceptedPayload{FromID: a.Target})
	case client.ActionDecline:
		view.Decline(a.Target)
	case client.ActionVote:
		err = conn.Send(protocol.VotePoll, protocol.VotePollPayload{PollID: a.PollID, OptionIndex: a.Index, VoterKey: session.VoterKey()})
	}
	if err != nil {
		log.Error().Err(err).Msg("send")
	}
}

func render(view *client.View, env protocol.Envelope) {
	switch env.Type {
	case protocol.RoomJoined:
		notice("Joined " + view.RoomID())
	case protocol.SystemMessage:
		var text string
		_ = env.Unmarshal(&text)
		notice(text)
	case protocol.ChatMessage:
		var msg domain.Message
		_ = env.Unmarshal(&msg)
		name := color.RGB(msg.Color.R, msg.Color.G, msg.Color.B).Sprint(msg.Name)
		suffix := ""
		if msg.Ephemeral > 0 {
			suffix = color.Gray.Sprintf(" (disappears in %ds)", msg.Ephemeral/1000)
		}
		fmt.Printf("%s: %s%s\n", name, msg.Text, suffix)
	case protocol.NewPoll:
		var poll domain.Poll
		_ = env.Unmarshal(&poll)
		fmt.Printf("%s %s asks: %s\n", color.Cyan.Sprint("[poll "+string(poll.ID)+"]"), poll.Creator, poll.Question)
		for i, o := range poll.Options {
			fmt.Printf("  %d. %s\n", i+1, o.Text)
		}
	case protocol.UpdatePoll:
		var p protocol.UpdatePollPayload
		_ = env.Unmarshal(&p)
		fmt.Printf("%s %d votes\n", color.Cyan.Sprint("[poll "+p.PollID+"]"), p.TotalVotes)
	case protocol.DMRequestReceive:
		var p protocol.DMRequestReceivedPayload
		_ = env.Unmarshal(&p)
		notice(fmt.Sprintf("%s wants to chat privately: /accept %s or /decline %s", p.FromName, p.FromID, p.FromID))
	case protocol.Error:
		color.Red.Println(view.LastError())
	}
}

func printUsers(users []domain.Member) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Name", "ID"})
	table.SetBorder(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, m := range users {
		table.Append([]string{strconv.Itoa(i + 1), color.RGB(m.Color.R, m.Color.G, m.Color.B).Sprint(m.Name), string(m.ID)})
	}
	table.Render()
}

func notice(text string) {
	color.Yellow.Println(text)
}
