package parking

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServoCommander_Rejected(t *testing.T) {
	for _, value := range []int{-1, 181, 254, 256, 360} {
		t.Run(strconv.Itoa(value), func(t *testing.T) {
			bus := new(MockI2CBus)
			servo := NewServoCommander(NewClient(bus, WithSettleDelay(0)))

			err := servo.SetServoAngle(context.Background(), value)
			assert.ErrorIs(t, err, ErrInvalidAngle)
			assert.ErrorIs(t, err, ErrValidation)
			assert.False(t, IsHardwareFault(err))
			bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestServoCommander_WritesExactValue(t *testing.T) {
	for _, value := range []int{0, 1, 90, 179, 180, 255} {
		t.Run(strconv.Itoa(value), func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{byte(RegServoCommand), byte(value)}).
				Return(nil).Once()
			servo := NewServoCommander(NewClient(bus, WithSettleDelay(0)))

			require.NoError(t, servo.SetServoAngle(context.Background(), value))
			bus.AssertExpectations(t)
		})
	}
}

func TestServoCommander_AutoAfterManual(t *testing.T) {
	sim, client := newTestSim()
	servo := NewServoCommander(client)
	ctx := context.Background()

	require.NoError(t, servo.SetServoAngle(ctx, 45))
	assert.Equal(t, byte(45), sim.Register(RegServoCommand))
	require.NoError(t, servo.ResumeAutomatic(ctx))
	assert.Equal(t, byte(ServoAuto), sim.Register(RegServoCommand))
	require.NoError(t, servo.SetServoAngle(ctx, ServoAuto))
	assert.Equal(t, byte(ServoAuto), sim.Register(RegServoCommand))
}

func TestServoCommander_TransportFault(t *testing.T) {
	sim, client := newTestSim()
	sim.FailWrite(RegServoCommand, errors.New("nack"))

	err := NewServoCommander(client).SetServoAngle(context.Background(), 10)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrValidation)
}
