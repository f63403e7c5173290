package screen

import (
	"github.com/jypelle/vekiscore/internal/images"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"image"
	"strconv"
	"time"
)

const (
	gameRedrawDelay = 20 * time.Millisecond
	paddleHeight    = 10
	paddleSpeed     = 1.5
)

// Game is a self playing pong.
type Game struct {
	cadence
	NoPriority

	width, height float64
	ballX, ballY  float64
	speedX        float64
	speedY        float64
	leftY, rightY float64
	leftScore     int
	rightScore    int
}

func NewGame(submitter command.Submitter) *Game {
	return &Game{
		cadence: newCadence(model.GAME_SCREEN, submitter),
		speedX:  1.2,
		speedY:  0.7,
	}
}

func (s *Game) ScreenId() model.ScreenId {
	return model.GAME_SCREEN
}

func (s *Game) Activate() {
	s.start()
}

func (s *Game) Deactivate() {
}

func (s *Game) UpdateSettings(settings *model.ScoreboardSettings) {
}

func (s *Game) Draw(buf *canvas.Buffer) {
	if s.width != float64(buf.Width()) || s.height != float64(buf.Height()) {
		s.reset(buf.Width(), buf.Height())
	}
	if s.due() {
		s.step()
	}

	buf.Clear()
	buf.FillRect(image.Rect(1, int(s.leftY), 3, int(s.leftY)+paddleHeight), canvas.White)
	buf.FillRect(image.Rect(buf.Width()-3, int(s.rightY), buf.Width()-1, int(s.rightY)+paddleHeight), canvas.White)
	for y := 0; y < buf.Height(); y += 4 {
		buf.SetPixel(buf.Width()/2, y, canvas.Grey)
	}
	buf.Sprite(int(s.ballX), int(s.ballY), images.BallImage)
	buf.Text(buf.Width()/2-3*canvas.GlyphWidth, 0, strconv.Itoa(s.leftScore%100), canvas.Grey)
	buf.Text(buf.Width()/2+2*canvas.GlyphWidth, 0, strconv.Itoa(s.rightScore%100), canvas.Grey)

	s.schedule(gameRedrawDelay)
}

func (s *Game) reset(width, height int) {
	s.width = float64(width)
	s.height = float64(height)
	s.ballX = s.width / 2
	s.ballY = s.height / 2
	s.leftY = (s.height - paddleHeight) / 2
	s.rightY = s.leftY
}

func (s *Game) step() {
	ballSize := float64(images.BallImage.Bounds().Dx())

	s.ballX += s.speedX
	s.ballY += s.speedY
	if s.ballY < 0 {
		s.ballY = -s.ballY
		s.speedY = -s.speedY
	} else if s.ballY > s.height-ballSize {
		s.ballY = 2*(s.height-ballSize) - s.ballY
		s.speedY = -s.speedY
	}

	s.leftY = follow(s.leftY, s.ballY+ballSize/2-paddleHeight/2, s.height)
	s.rightY = follow(s.rightY, s.ballY+ballSize/2-paddleHeight/2, s.height)

	switch {
	case s.ballX <= 3:
		if s.ballY+ballSize < s.leftY || s.ballY > s.leftY+paddleHeight {
			s.rightScore++
			s.serve(1)
			return
		}
		s.ballX = 3
		s.speedX = -s.speedX
	case s.ballX >= s.width-3-ballSize:
		if s.ballY+ballSize < s.rightY || s.ballY > s.rightY+paddleHeight {
			s.leftScore++
			s.serve(-1)
			return
		}
		s.ballX = s.width - 3 - ballSize
		s.speedX = -s.speedX
	}
}

func (s *Game) serve(direction float64) {
	s.ballX = s.width / 2
	s.ballY = s.height / 2
	if s.speedX*direction < 0 {
		s.speedX = -s.speedX
	}
}

// follow moves a paddle toward target at paddle speed, inside the field
func follow(position, target, height float64) float64 {
	switch {
	case target > position+paddleSpeed:
		position += paddleSpeed
	case target < position-paddleSpeed:
		position -= paddleSpeed
	default:
		position = target
	}
	if position < 0 {
		return 0
	}
	if position > height-paddleHeight {
		return height - paddleHeight
	}
	return position
}
