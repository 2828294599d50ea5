package controllers

import (
	"math/big"
	"net/http"

	"github.com/franciscotobar/rif-relay-server/core/services"
	"github.com/franciscotobar/rif-relay-server/core/store/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// TransactionsController exposes the relay's outgoing transactions: POST
// wraps a request into a signed chain transaction, GET lists what is
// still in flight.
type TransactionsController struct {
	App *services.Application
}

type createTransactionRequest struct {
	From         common.Address      `json:"from" binding:"required"`
	To           common.Address      `json:"to" binding:"required"`
	Value        *hexutil.Big        `json:"value"`
	GasLimit     uint64              `json:"gasLimit" binding:"required"`
	GasPrice     *hexutil.Big        `json:"gasPrice"`
	Data         hexutil.Bytes       `json:"data"`
	ServerAction models.ServerAction `json:"serverAction"`
}

func (self *TransactionsController) Create(c *gin.Context) {
	var request createTransactionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	blockNumber, err := self.App.Store.Eth.BlockNumber()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"errors": []string{err.Error()}})
		return
	}
	action := request.ServerAction
	if action == "" {
		action = models.RelayCall
	}
	tx, err := self.App.TxManager.SendTransaction(services.SendRequest{
		From:                request.From,
		To:                  request.To,
		Value:               (*big.Int)(request.Value),
		GasLimit:            request.GasLimit,
		GasPrice:            (*big.Int)(request.GasPrice),
		Data:                request.Data,
		ServerAction:        action,
		CreationBlockNumber: blockNumber,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hash": tx.Hash.Hex(), "rawTx": tx.Hex})
}

func (self *TransactionsController) Index(c *gin.Context) {
	var txs []models.Tx
	var err error
	if signer := c.Query("signer"); signer != "" {
		txs, err = self.App.Store.TxsBySigner(common.HexToAddress(signer))
	} else {
		txs, err = self.App.Store.AllTxs()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, txs)
}

// BoostsController forces a boost sweep for one signer at the current
// head, outside the regular schedule.
type BoostsController struct {
	App *services.Application
}

func (self *BoostsController) Create(c *gin.Context) {
	signer := common.HexToAddress(c.Param("signer"))
	blockNumber, err := self.App.Store.Eth.BlockNumber()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"errors": []string{err.Error()}})
		return
	}
	boosted, err := self.App.TxManager.BoostPending(signer, blockNumber)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
		return
	}
	response := map[string]interface{}{}
	for oldHash, tx := range boosted {
		response[oldHash.Hex()] = gin.H{"hash": tx.Hash.Hex(), "rawTx": tx.Hex}
	}
	c.JSON(http.StatusOK, response)
}
