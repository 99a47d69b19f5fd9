package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"musicbox/internal/player"
	"musicbox/internal/queue"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	email     string
	password  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "player",
		Short: "Консольный плеер очереди воспроизведения",
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Адрес сервера")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "Email пользователя")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Пароль пользователя")

	rootCmd.AddCommand(queueCmd(), addCmd(), removeCmd(), nextCmd(), prevCmd(), playCmd())

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// connect авторизуется на сервере и строит зеркало очереди
func connect(engine player.Engine) (*player.Mirror, error) {
	client := player.NewClient(serverURL)
	if err := client.Login(email, password); err != nil {
		return nil, fmt.Errorf("не удалось войти: %w", err)
	}
	mirror := player.NewMirror(client, engine)
	if err := mirror.Refresh(); err != nil {
		return nil, err
	}
	return mirror, nil
}

// noopEngine — заглушка для команд, которым не нужен звук
type noopEngine struct{}

func (noopEngine) Load(string) error { return nil }
func (noopEngine) Play()             {}
func (noopEngine) Stop()             {}

func printQueue(mirror *player.Mirror) {
	items := mirror.Items()
	if len(items) == 0 {
		pterm.Info.Println("Очередь пуста")
		return
	}

	data := pterm.TableData{{"", "Поз.", "Трек", "Исполнитель", "Альбом", "Длительность"}}
	for _, item := range items {
		marker := ""
		if item.IsCurrent {
			marker = "▶"
		}
		album := ""
		if item.Album != nil {
			album = *item.Album
		}
		data = append(data, []string{
			marker,
			strconv.Itoa(item.Position),
			item.Title,
			item.Artist,
			album,
			fmt.Sprintf("%d:%02d", item.Duration/60, item.Duration%60),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printCurrent(item *queue.QueueItem) {
	if item == nil {
		pterm.Info.Println("Очередь пуста")
		return
	}
	pterm.Success.Printfln("Сейчас играет: %s — %s", item.Artist, item.Title)
}

func queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Показать очередь воспроизведения",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := connect(noopEngine{})
			if err != nil {
				return err
			}
			printQueue(mirror)
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var position int
	var playNow bool
	cmd := &cobra.Command{
		Use:   "add <song_id>",
		Short: "Добавить трек в очередь",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.Atoi(args[0])
			if err != nil || songID <= 0 {
				return errors.New("неверный идентификатор трека")
			}
			mirror, err := connect(noopEngine{})
			if err != nil {
				return err
			}
			if err := mirror.Add(uint(songID), position, playNow); err != nil {
				return err
			}
			printQueue(mirror)
			return nil
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "Позиция вставки (0 — в конец)")
	cmd.Flags().BoolVar(&playNow, "play", false, "Сразу сделать трек текущим")
	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <song_id>",
		Short: "Удалить трек из очереди",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, err := strconv.Atoi(args[0])
			if err != nil || songID <= 0 {
				return errors.New("неверный идентификатор трека")
			}
			mirror, err := connect(noopEngine{})
			if err != nil {
				return err
			}
			if err := mirror.Remove(uint(songID)); err != nil {
				return err
			}
			printQueue(mirror)
			return nil
		},
	}
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Перейти к следующему треку",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := connect(noopEngine{})
			if err != nil {
				return err
			}
			if err := mirror.Next(false); err != nil {
				return err
			}
			printCurrent(mirror.Current())
			return nil
		},
	}
}

func prevCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Вернуться к предыдущему треку",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := connect(noopEngine{})
			if err != nil {
				return err
			}
			if err := mirror.Previous(); err != nil {
				if errors.Is(err, player.ErrNoPreviousTrack) {
					pterm.Info.Println("Предыдущих треков нет")
					return nil
				}
				return err
			}
			printCurrent(mirror.Current())
			return nil
		},
	}
}

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Воспроизводить очередь до прерывания (Ctrl+C)",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := player.NewBeepEngine()
			mirror, err := connect(engine)
			if err != nil {
				return err
			}

			// Естественное окончание трека переключает очередь дальше
			// без записи в историю
			engine.SetOnFinished(func() {
				if err := mirror.Next(true); err != nil {
					pterm.Error.Println("Ошибка перехода к следующему треку:", err)
					return
				}
				printCurrent(mirror.Current())
			})

			printCurrent(mirror.Current())
			if mirror.Current() == nil {
				return nil
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			mirror.Reset()
			pterm.Info.Println("Воспроизведение остановлено")
			return nil
		},
	}
}
